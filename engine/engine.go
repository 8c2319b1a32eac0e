// Package engine wires the game state, dialogue, timeline and scenes into
// one frame-driven game. Frame advances time; Step handles one player
// command.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/PtiCalin/simple-game-engine/engine/dialogue"
	"github.com/PtiCalin/simple-game-engine/engine/effects"
	"github.com/PtiCalin/simple-game-engine/engine/parser"
	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/engine/scene"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/engine/timeline"
	"github.com/PtiCalin/simple-game-engine/types"
)

// DefaultWaitMillis is how far "wait" moves the clock without an argument.
const DefaultWaitMillis = 1000

// Translator turns content text keys into display text.
type Translator interface {
	Translate(key string) string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine and its subsystems.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStore persists the state whenever scenes unlock or flag actions run.
func WithStore(st *save.Store) Option {
	return func(e *Engine) { e.store = st }
}

// WithTranslator localizes dialogue text in command output.
func WithTranslator(t Translator) Option {
	return func(e *Engine) { e.translator = t }
}

// WithPresenter forwards dialogue rendering to p.
func WithPresenter(p dialogue.Presenter) Option {
	return func(e *Engine) { e.presenter = p }
}

// Engine holds the game definitions, the mutable state and the subsystems
// acting on it. It implements effects.Host.
type Engine struct {
	Defs     *state.Defs
	State    *types.State
	Dialogue *dialogue.Engine
	Timeline *timeline.Engine
	Effects  *effects.Registry
	Scenes   scene.Stack

	store      *save.Store
	translator Translator
	presenter  dialogue.Presenter
	logger     *zap.Logger

	// Frame ticks are absolute; the timeline runs on ticks relative to
	// when the current scene (or its loop) started.
	lastTick   int64
	sceneStart int64
	// skew is the time skipped by "wait", added to every frame tick.
	skew int64
}

// New creates an engine from definitions. Call Start to enter the first scene.
func New(defs *state.Defs, opts ...Option) *Engine {
	e := &Engine{
		Defs:    defs,
		State:   state.NewState(),
		Effects: effects.NewRegistry(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	dopts := []dialogue.Option{dialogue.WithLogger(e.logger.Named("dialogue"))}
	if e.presenter != nil {
		dopts = append(dopts, dialogue.WithPresenter(e.presenter))
	}
	e.Dialogue = dialogue.New(e.State, dopts...)
	for id, d := range defs.Dialogues {
		e.Dialogue.LoadDialogue(id, d)
	}

	topts := []timeline.Option{
		timeline.WithLogger(e.logger.Named("timeline")),
		timeline.WithEffects(e.Effects),
	}
	if e.store != nil {
		topts = append(topts, timeline.WithPersister(e.store))
	}
	e.Timeline = timeline.New(e.State, e, topts...)
	return e
}

// Start enters the saved scene if there is one, else the start scene, and
// schedules the global timeline events.
func (e *Engine) Start() types.Result {
	var result types.Result
	if e.Defs.Game.Title != "" {
		result.Output = append(result.Output, e.Defs.Game.Title)
	}
	if e.Defs.Game.Intro != "" {
		result.Output = append(result.Output, e.translate(e.Defs.Game.Intro))
	}

	start := e.Defs.Game.Start
	if cur := e.State.CurrentScene; cur != "" {
		if _, ok := e.Defs.Scenes[cur]; ok {
			start = cur
		}
	}
	e.Scenes.Change(start)
	e.activate(start)
	e.Timeline.LoadEvents(e.Defs.Events)

	result.Output = append(result.Output, e.describeScene()...)
	return result
}

// Resume re-enters the current scene after the state was replaced, for
// example by loading a save.
func (e *Engine) Resume() types.Result {
	var result types.Result
	cur := e.State.CurrentScene
	if _, ok := e.Defs.Scenes[cur]; !ok {
		cur = e.Defs.Game.Start
	}
	e.Scenes.Change(cur)
	e.activate(cur)
	result.Output = append(result.Output, e.describeScene()...)
	return result
}

// OpenScene enters scene id on top of the scene stack. Unknown ids are
// ignored.
func (e *Engine) OpenScene(id string) {
	if _, ok := e.Defs.Scenes[id]; !ok {
		e.logger.Warn("open unknown scene", zap.String("scene", id))
		return
	}
	if top, ok := e.Scenes.Top(); !ok || top != id {
		e.Scenes.Push(id)
	}
	e.activate(id)
}

// StartDialogue starts dialogue id.
func (e *Engine) StartDialogue(id string) {
	e.Dialogue.Start(id)
	if !e.Dialogue.IsActive() {
		e.logger.Warn("start unknown dialogue", zap.String("dialogue", id))
		return
	}
	e.settleDialogue()
	e.Dialogue.Render()
}

// ChangeScene replaces the scene stack with id.
func (e *Engine) ChangeScene(id string) bool {
	if _, ok := e.Defs.Scenes[id]; !ok {
		return false
	}
	e.Scenes.Change(id)
	e.activate(id)
	return true
}

// Back leaves the top scene and re-enters the one below. It reports false
// when there is nothing to go back to.
func (e *Engine) Back() bool {
	if e.Scenes.Len() < 2 {
		return false
	}
	prev, _ := e.Scenes.Pop()
	e.activate(prev)
	return true
}

// activate makes id the current scene: it is unlocked, its events replace
// the timeline, and its time loop is configured.
func (e *Engine) activate(id string) {
	sc := e.Defs.Scenes[id]
	state.SetScene(e.State, id)
	if state.UnlockScene(e.State, id) {
		e.store.Persist(e.State)
	}

	e.sceneStart = e.lastTick
	e.Timeline.Clear()
	e.Timeline.ResetLoop()
	if len(sc.Events) > 0 {
		e.Timeline.AddEvents(sc.Events, 0, id)
	}
	if ms, ok := scene.LoopDuration(sc.Features); ok {
		e.Timeline.SetLoop(true, float64(ms)/1000)
	} else {
		e.Timeline.SetLoop(false, 0)
	}
	e.logger.Debug("scene activated", zap.String("scene", id), zap.Int("events", len(sc.Events)))
}

// Frame advances the timeline to tick (milliseconds, non-decreasing) and
// returns what should be drawn.
func (e *Engine) Frame(tick int64) View {
	res := e.advanceClock(tick + e.skew)
	v := e.View()
	v.Output = res.Output
	return v
}

func (e *Engine) advanceClock(tick int64) types.Result {
	if tick > e.lastTick {
		e.lastTick = tick
	}
	rel := max(e.lastTick-e.sceneStart, 0)
	res := e.Timeline.Update(rel, e.State.CurrentScene)
	for _, ev := range res.Events {
		if ev.Type == timeline.EventLoopReset {
			e.sceneStart = e.lastTick
		}
	}
	return res
}

// Now returns the last frame tick seen.
func (e *Engine) Now() int64 {
	return e.lastTick
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	intent := parser.Parse(input)

	if e.Dialogue.IsActive() {
		return e.stepDialogue(intent)
	}

	var result types.Result
	switch intent.Verb {
	case "":
		result.Output = append(result.Output, "What do you want to do?")
	case "advance", "choose":
		result.Output = append(result.Output, "Nobody is talking to you.")
	case "look":
		result.Output = append(result.Output, e.describeScene()...)
	case "inventory":
		result.Output = append(result.Output, e.describeInventory())
	case "talk":
		return e.stepTalk(intent)
	case "click":
		return e.stepClick(intent)
	case "go":
		return e.stepGo(intent)
	case "back":
		if !e.Back() {
			result.Output = append(result.Output, "There is nowhere to go back to.")
			return result
		}
		result.Output = append(result.Output, e.describeScene()...)
	case "wait":
		return e.stepWait(intent)
	default:
		result.Output = append(result.Output, fmt.Sprintf("You can't %s here.", intent.Verb))
	}
	return result
}

func (e *Engine) stepWait(intent types.Intent) types.Result {
	ms := int64(DefaultWaitMillis)
	if intent.Object != "" {
		n, err := strconv.ParseInt(intent.Object, 10, 64)
		if err != nil || n < 0 {
			return types.Result{Output: []string{"Wait how many milliseconds?"}}
		}
		ms = n
	}

	before := e.State.CurrentScene
	e.skew += ms
	res := e.advanceClock(e.lastTick + ms)
	res.Output = append([]string{"Time passes."}, res.Output...)
	if e.State.CurrentScene != before {
		res.Output = append(res.Output, e.describeScene()...)
	}
	if e.Dialogue.IsActive() {
		res.Output = append(res.Output, e.describeDialogue()...)
	}
	return res
}

func (e *Engine) translate(key string) string {
	if e.translator == nil || key == "" {
		return key
	}
	return e.translator.Translate(key)
}

// describeInventory follows the usual adventure phrasing.
func (e *Engine) describeInventory() string {
	inv := state.ListInventory(e.State)
	if len(inv) == 0 {
		return "You are carrying nothing."
	}
	return "You are carrying: " + strings.Join(inv, ", ") + "."
}
