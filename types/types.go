// Package types defines the shared data structures for the adventure engine.
// This package contains only type definitions. It holds no logic.
package types

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// Effect is a single atomic state mutation instruction.
type Effect struct {
	Type   string
	Params map[string]any
}

// Event is emitted after effects are applied.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single game step.
type Result struct {
	Effects []Effect
	Events  []Event
	Output  []string
}

// State is the complete mutable game state. It is the flat record that
// gets persisted and reloaded wholesale.
type State struct {
	Flags          map[string]bool
	Variables      map[string]any
	Inventory      []string
	CurrentScene   string
	Clues          []string
	UnlockedScenes []string
}

// DialogueOption is a single selectable choice on a dialogue line.
type DialogueOption struct {
	Text           string         `yaml:"text" json:"text"`
	Next           string         `yaml:"next" json:"next"`
	Condition      string         `yaml:"condition" json:"condition"`
	SetFlag        string         `yaml:"set_flag" json:"set_flag"`
	ClearFlag      string         `yaml:"clear_flag" json:"clear_flag"`
	RequiresFlag   string         `yaml:"requires_flag" json:"requires_flag"`
	RequiresMemory string         `yaml:"requires_memory" json:"requires_memory"`
	SetMemory      map[string]any `yaml:"set_memory" json:"set_memory"`
}

// DialogueLine is one entry of a dialogue. A line without options is a
// pass-through line.
type DialogueLine struct {
	ID             string           `yaml:"id" json:"id"`
	Speaker        string           `yaml:"speaker" json:"speaker"`
	Text           string           `yaml:"text" json:"text"`
	Options        []DialogueOption `yaml:"options" json:"options"`
	Next           string           `yaml:"next" json:"next"`
	Condition      string           `yaml:"condition" json:"condition"`
	SetFlag        string           `yaml:"set_flag" json:"set_flag"`
	ClearFlag      string           `yaml:"clear_flag" json:"clear_flag"`
	RequiresFlag   string           `yaml:"requires_flag" json:"requires_flag"`
	RequiresMemory string           `yaml:"requires_memory" json:"requires_memory"`
	SetMemory      map[string]any   `yaml:"set_memory" json:"set_memory"`
}

// OnComplete holds side effects applied when a dialogue ends.
type OnComplete struct {
	SetFlag string `yaml:"set_flag" json:"set_flag"`
}

// Dialogue is a parsed dialogue tree.
type Dialogue struct {
	ID         string         `yaml:"id" json:"id"`
	Lines      []DialogueLine `yaml:"lines" json:"lines"`
	MemoryFlag string         `yaml:"memory_flag" json:"memory_flag"`
	OnComplete OnComplete     `yaml:"on_complete" json:"on_complete"`
}

// Timeline trigger kinds.
const (
	TriggerDelay     = "delay"
	TriggerCondition = "condition"
	TriggerScene     = "scene"
)

// TimelineEventDef is a timeline entry as authored in content files.
// Time and Delay are untyped because authors write numbers, strings, or
// nothing at all.
type TimelineEventDef struct {
	ID        string         `yaml:"id" json:"id"`
	Trigger   string         `yaml:"trigger" json:"trigger"`
	Time      any            `yaml:"time" json:"time"`
	Delay     any            `yaml:"delay" json:"delay"`
	Action    string         `yaml:"action" json:"action"`
	Params    map[string]any `yaml:"params" json:"params"`
	Condition string         `yaml:"condition" json:"condition"`
	Flag      string         `yaml:"flag" json:"flag"` // legacy shorthand for params.flag
}

// TimelineEvent is a scheduled event at runtime.
type TimelineEvent struct {
	ID          string
	Trigger     string // "delay", "condition", "scene"
	Time        float64
	Action      string
	Params      map[string]any
	Condition   string
	Scene       string // empty = global
	ScheduledAt float64
	Triggered   bool
}

// Hotspot is a clickable region of a scene.
type Hotspot struct {
	ID        string `yaml:"id" json:"id"`
	Area      []int  `yaml:"area" json:"area"` // x, y, w, h
	Action    string `yaml:"action" json:"action"`
	Target    string `yaml:"target" json:"target"`
	Condition string `yaml:"condition" json:"condition"`
}

// SceneFeatures are optional per-scene behaviours.
type SceneFeatures struct {
	TimeLoop any    `yaml:"time_loop" json:"time_loop"` // bool or milliseconds
	Music    string `yaml:"music" json:"music"`
}

// Scene is a single location of the game.
type Scene struct {
	ID          string             `yaml:"id" json:"id"`
	Title       string             `yaml:"title" json:"title"`             // text key
	Description string             `yaml:"description" json:"description"` // text key
	Background  string             `yaml:"background" json:"background"`
	Mode        string             `yaml:"mode" json:"mode"`
	Features    SceneFeatures      `yaml:"features" json:"features"`
	Overlays    []string           `yaml:"overlays" json:"overlays"`
	Hotspots    []Hotspot          `yaml:"hotspots" json:"hotspots"`
	Events      []TimelineEventDef `yaml:"events" json:"events"`
}

// GameDef holds game metadata.
type GameDef struct {
	Title   string `yaml:"title" json:"title"`
	Author  string `yaml:"author" json:"author"`
	Version string `yaml:"version" json:"version"`
	Start   string `yaml:"start" json:"start"` // starting scene ID
	Intro   string `yaml:"intro" json:"intro"`
}
