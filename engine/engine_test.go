package engine

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// testDefs builds a small test game: a hall with a door to a looping garden,
// a drawer close-up, a lever and a talking portrait.
func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title: "Test Game",
			Start: "hall",
		},
		Scenes: map[string]types.Scene{
			"hall": {
				ID:          "hall",
				Title:       "Great Hall",
				Description: "A grand hall with stone walls.",
				Hotspots: []types.Hotspot{
					{ID: "door", Area: []int{0, 0, 10, 10}, Action: "open_scene", Target: "garden"},
					{ID: "portrait", Area: []int{20, 0, 10, 10}, Action: "show_dialogue", Target: "gatekeeper_intro"},
					{ID: "lever", Area: []int{40, 0, 10, 10}, Action: "toggle_flag", Target: "lever_pulled"},
					{ID: "drawer", Area: []int{60, 0, 10, 10}, Action: "open_scene", Target: "drawer"},
					{ID: "trapdoor", Area: []int{80, 0, 10, 10}, Action: "open_scene", Target: "cellar", Condition: "lever_pulled"},
				},
			},
			"garden": {
				ID:       "garden",
				Features: types.SceneFeatures{TimeLoop: 2000},
				Events: []types.TimelineEventDef{
					{ID: "bell", Trigger: "delay", Time: 1.0, Action: "toggle_flag", Params: map[string]any{"flag": "bell"}},
				},
			},
			"drawer": {ID: "drawer"},
			"cellar": {
				ID: "cellar",
				Events: []types.TimelineEventDef{
					{Trigger: "scene", Action: "show_dialogue", Params: map[string]any{"text": "rat"}},
				},
			},
			"tower": {
				ID: "tower",
				Events: []types.TimelineEventDef{
					{Trigger: "delay", Time: 0.5, Action: "goto_scene", Params: map[string]any{"scene": "hall"}},
				},
			},
		},
		Dialogues: map[string]types.Dialogue{
			"gatekeeper_intro": {
				ID:         "gatekeeper_intro",
				MemoryFlag: "talked_to_gatekeeper",
				Lines: []types.DialogueLine{
					{Speaker: "Gatekeeper", Text: "You're not from around here, are you?"},
					{Options: []types.DialogueOption{
						{Text: "I'm just passing through.", Next: "reply_chill"},
						{Text: "Who are you?", Next: "reply_defensive", Condition: "!npc_hostile"},
					}},
					{ID: "reply_chill", Speaker: "Gatekeeper", Text: "Then don't get lost in these ruins."},
					{ID: "reply_defensive", Speaker: "Gatekeeper", Text: "That's none of your business, outsider."},
				},
				OnComplete: types.OnComplete{SetFlag: "gatekeeper_intro_complete"},
			},
			"rat": {
				ID:    "rat",
				Lines: []types.DialogueLine{{Speaker: "Rat", Text: "Squeak."}},
			},
		},
	}
}

func startedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(testDefs(), opts...)
	e.Start()
	return e
}

func outputContains(r types.Result, substr string) bool {
	for _, line := range r.Output {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestStart(t *testing.T) {
	e := New(testDefs())
	r := e.Start()

	if e.State.CurrentScene != "hall" {
		t.Errorf("current scene = %q, want hall", e.State.CurrentScene)
	}
	if !outputContains(r, "Test Game") || !outputContains(r, "== Great Hall ==") {
		t.Errorf("unexpected start output: %v", r.Output)
	}
	if !outputContains(r, "You notice: door, portrait, lever, drawer.") {
		t.Errorf("gated trapdoor must stay hidden: %v", r.Output)
	}
	if !slices.Equal(e.State.UnlockedScenes, []string{"hall"}) {
		t.Errorf("unlocked = %v", e.State.UnlockedScenes)
	}
}

func TestStart_ResumesSavedScene(t *testing.T) {
	e := New(testDefs())
	state.SetScene(e.State, "garden")
	e.Start()

	if e.State.CurrentScene != "garden" {
		t.Errorf("current scene = %q, want garden", e.State.CurrentScene)
	}
}

func TestClickOpensSceneAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	e := startedEngine(t, WithStore(save.NewStore(path, nil)))

	r := e.Step("click door")

	if e.State.CurrentScene != "garden" {
		t.Fatalf("current scene = %q, want garden", e.State.CurrentScene)
	}
	if !outputContains(r, "== garden ==") {
		t.Errorf("expected garden description, got %v", r.Output)
	}
	if !slices.Equal(e.State.UnlockedScenes, []string{"hall", "garden"}) {
		t.Errorf("unlocked = %v", e.State.UnlockedScenes)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected save written on unlock: %v", err)
	}

	s := state.NewState()
	if err := save.ReadFile(path, s); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(s.UnlockedScenes, "garden") {
		t.Errorf("persisted unlocked = %v", s.UnlockedScenes)
	}
}

func TestOpenUnknownSceneIsNoop(t *testing.T) {
	e := startedEngine(t)
	e.OpenScene("moon")

	if e.State.CurrentScene != "hall" || e.Scenes.Len() != 1 {
		t.Errorf("scene = %q, stack = %v", e.State.CurrentScene, e.Scenes.IDs())
	}
}

func TestClickPoint(t *testing.T) {
	e := startedEngine(t)

	if r := e.Step("click 45 5"); !outputContains(r, "You use the lever.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
	if !state.GetFlag(e.State, "lever_pulled") {
		t.Error("expected lever pulled")
	}
	if r := e.Step("click 500 500"); !outputContains(r, "Nothing happens.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

func TestClickHiddenHotspot(t *testing.T) {
	e := startedEngine(t)

	if r := e.Step("click trapdoor"); !outputContains(r, "no hotspot") {
		t.Errorf("expected hidden trapdoor, got %v", r.Output)
	}
	e.Step("click lever")
	e.Step("click trapdoor")
	if e.State.CurrentScene != "cellar" {
		t.Errorf("current scene = %q, want cellar", e.State.CurrentScene)
	}
}

func TestDialogueThroughSteps(t *testing.T) {
	e := startedEngine(t)

	r := e.Step("talk gatekeeper")
	if !outputContains(r, "Gatekeeper: You're not from around here, are you?") {
		t.Fatalf("unexpected output: %v", r.Output)
	}

	r = e.Step("")
	if !outputContains(r, "1. I'm just passing through.") || !outputContains(r, "2. Who are you?") {
		t.Fatalf("expected numbered options, got %v", r.Output)
	}

	r = e.Step("look")
	if !outputContains(r, "You are in a conversation.") {
		t.Errorf("dialogue input must take priority, got %v", r.Output)
	}

	r = e.Step("7")
	if !outputContains(r, "Choose an option (1-2).") {
		t.Errorf("unexpected output: %v", r.Output)
	}

	r = e.Step("1")
	if !outputContains(r, "Then don't get lost in these ruins.") {
		t.Fatalf("unexpected output: %v", r.Output)
	}

	r = e.Step("next")
	if !outputContains(r, "The conversation ends.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
	if !state.GetFlag(e.State, "gatekeeper_intro_complete") {
		t.Error("expected on_complete flag")
	}
	if r := e.Step("1"); !outputContains(r, "Nobody is talking to you.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

func TestHotspotStartsDialogue(t *testing.T) {
	e := startedEngine(t)
	e.Step("click portrait")

	if !e.Dialogue.IsActive() || e.Dialogue.ActiveID() != "gatekeeper_intro" {
		t.Fatal("expected gatekeeper dialogue running")
	}
	v := e.View()
	if v.Speaker != "Gatekeeper" || v.Line == "" {
		t.Errorf("view dialogue = %q: %q", v.Speaker, v.Line)
	}
}

func TestFrameFiresSceneEvents(t *testing.T) {
	e := startedEngine(t)
	e.Frame(100)
	e.Step("click door")

	e.Frame(600)
	if state.GetFlag(e.State, "bell") {
		t.Fatal("bell rang too early")
	}
	e.Frame(1200)
	if !state.GetFlag(e.State, "bell") {
		t.Error("expected bell after one second in the garden")
	}
}

func TestTimeLoopReplaysScene(t *testing.T) {
	e := startedEngine(t)
	e.Step("click door")

	e.Frame(1100)
	if !state.GetFlag(e.State, "bell") {
		t.Fatal("expected bell on")
	}

	v := e.Frame(2100)
	if v.Elapsed > 0.1 || !v.Looping {
		t.Errorf("expected loop reset, elapsed=%v looping=%v", v.Elapsed, v.Looping)
	}

	e.Frame(3300)
	if state.GetFlag(e.State, "bell") {
		t.Error("expected bell toggled off on the second loop")
	}
}

func TestLeavingSceneDropsItsEvents(t *testing.T) {
	e := startedEngine(t)
	e.Step("click door")
	e.Step("back")

	e.Frame(5000)
	if state.GetFlag(e.State, "bell") {
		t.Error("garden events must not fire in the hall")
	}
	if len(e.Timeline.Events()) != 0 {
		t.Errorf("expected empty timeline, got %d events", len(e.Timeline.Events()))
	}
}

func TestSceneTriggerStartsDialogue(t *testing.T) {
	e := startedEngine(t)
	e.Step("click lever")
	e.Step("click trapdoor")

	v := e.Frame(16)
	if v.Speaker != "Rat" || v.Line != "Squeak." {
		t.Errorf("view = %+v", v)
	}
}

func TestTimelineSceneChangeMidFrame(t *testing.T) {
	e := startedEngine(t)
	state.UnlockScene(e.State, "tower")
	e.Step("go tower")

	e.Frame(700)
	if e.State.CurrentScene != "hall" {
		t.Errorf("current scene = %q, want hall", e.State.CurrentScene)
	}
}

func TestWait(t *testing.T) {
	e := startedEngine(t)
	e.Step("click door")

	r := e.Step("wait 1500")
	if !outputContains(r, "Time passes.") || !state.GetFlag(e.State, "bell") {
		t.Errorf("expected bell after waiting, output %v", r.Output)
	}
	if e.Now() != 1500 {
		t.Errorf("now = %d, want 1500", e.Now())
	}

	// Frames keep running on top of the skipped time.
	e.Frame(100)
	if e.Now() != 1600 {
		t.Errorf("now = %d, want 1600", e.Now())
	}

	if r := e.Step("wait soon"); !outputContains(r, "Wait how many") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

func TestSceneStack(t *testing.T) {
	e := startedEngine(t)

	r := e.Step("click drawer")
	if !outputContains(r, "You can go back.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
	if ids := e.Scenes.IDs(); !slices.Equal(ids, []string{"hall", "drawer"}) {
		t.Errorf("stack = %v", ids)
	}

	e.Step("back")
	if e.State.CurrentScene != "hall" {
		t.Errorf("current scene = %q, want hall", e.State.CurrentScene)
	}
	if r := e.Step("back"); !outputContains(r, "nowhere to go back") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

func TestGoRequiresUnlockedScene(t *testing.T) {
	e := startedEngine(t)

	if r := e.Step("go garden"); !outputContains(r, "don't know the way") {
		t.Errorf("unexpected output: %v", r.Output)
	}
	e.Step("click door")
	e.Step("go hall")
	if r := e.Step("go garden"); e.State.CurrentScene != "garden" {
		t.Errorf("expected garden, got %q (%v)", e.State.CurrentScene, r.Output)
	}
	if ids := e.Scenes.IDs(); len(ids) != 1 {
		t.Errorf("go must replace the stack, got %v", ids)
	}
	if r := e.Step("go garden"); !outputContains(r, "already there") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

func TestResume(t *testing.T) {
	e := startedEngine(t)
	e.Step("click drawer")

	rec := &save.Record{
		Flags:          map[string]bool{},
		Variables:      map[string]any{},
		CurrentScene:   "garden",
		UnlockedScenes: []string{"hall", "garden"},
	}
	save.Apply(e.State, rec)
	r := e.Resume()

	if e.State.CurrentScene != "garden" || e.Scenes.Len() != 1 {
		t.Errorf("scene = %q stack = %v", e.State.CurrentScene, e.Scenes.IDs())
	}
	if !outputContains(r, "== garden ==") {
		t.Errorf("unexpected output: %v", r.Output)
	}
	if len(e.Timeline.Events()) != 1 {
		t.Errorf("expected garden events scheduled, got %d", len(e.Timeline.Events()))
	}
}

func TestMiscCommands(t *testing.T) {
	e := startedEngine(t)

	tests := []struct {
		input string
		want  string
	}{
		{"", "What do you want to do?"},
		{"i", "You are carrying nothing."},
		{"talk", "Talk to whom?"},
		{"talk dragon", "no dialogue"},
		{"click", "Click what?"},
		{"go", "Go where?"},
		{"dance", "You can't dance here."},
	}
	for _, tt := range tests {
		if r := e.Step(tt.input); !outputContains(r, tt.want) {
			t.Errorf("Step(%q) = %v, want %q", tt.input, r.Output, tt.want)
		}
	}

	state.AddItem(e.State, "lamp")
	if r := e.Step("inventory"); !outputContains(r, "You are carrying: lamp.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

func TestTranslator(t *testing.T) {
	defs := testDefs()
	defs.Dialogues["rat"] = types.Dialogue{ID: "rat", Lines: []types.DialogueLine{
		{Speaker: "npc.rat", Text: "rat.greeting"},
	}}
	e := New(defs, WithTranslator(mapTranslator{"npc.rat": "Rat", "rat.greeting": "Couic."}))
	e.Start()

	r := e.Step("talk rat")
	if !outputContains(r, "Rat: Couic.") {
		t.Errorf("unexpected output: %v", r.Output)
	}
}

type recordingPresenter struct{ lines []string }

func (p *recordingPresenter) ShowLine(speaker, text string) { p.lines = append(p.lines, speaker+": "+text) }
func (p *recordingPresenter) ShowOptions([]string)          {}

func TestPresenterReceivesDialogue(t *testing.T) {
	p := &recordingPresenter{}
	e := New(testDefs(), WithPresenter(p))
	e.Start()
	e.StartDialogue("rat")

	if len(p.lines) != 1 || p.lines[0] != "Rat: Squeak." {
		t.Errorf("presented = %v", p.lines)
	}
}
