// Package dialogue implements the branching dialogue state machine.
//
// An Engine is Idle until Start is called, Playing while it walks lines, and
// AwaitingChoice while an options line waits for Choose. Dialogue content is
// authored data that may reference things that are not loaded yet, so every
// failed lookup degrades to a no-op or to finishing the dialogue.
package dialogue

import (
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// Presenter draws the current line and options. Rendering is optional.
type Presenter interface {
	ShowLine(speaker, text string)
	ShowOptions(options []string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithPresenter wires a presentation layer for Render.
func WithPresenter(p Presenter) Option {
	return func(e *Engine) { e.presenter = p }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine drives one dialogue at a time over a registry of dialogue trees.
type Engine struct {
	state     *types.State
	presenter Presenter
	logger    *zap.Logger

	dialogues map[string]types.Dialogue

	activeID       string
	cursor         int
	awaitingChoice bool
	choiceLine     *types.DialogueLine
	options        []types.DialogueOption
	branchEnd      bool

	// Per-dialogue memory and choice history survive restarts.
	memory  map[string]map[string]string
	history map[string][]string
}

// New creates an idle engine over the given game state.
func New(s *types.State, opts ...Option) *Engine {
	e := &Engine{
		state:     s,
		logger:    zap.NewNop(),
		dialogues: map[string]types.Dialogue{},
		memory:    map[string]map[string]string{},
		history:   map[string][]string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadDialogue registers a dialogue under id. The last load of an id wins.
func (e *Engine) LoadDialogue(id string, d types.Dialogue) {
	d.ID = id
	e.dialogues[id] = d
}

// Has reports whether a dialogue id is registered.
func (e *Engine) Has(id string) bool {
	_, ok := e.dialogues[id]
	return ok
}

// IDs returns the registered dialogue ids in sorted order.
func (e *Engine) IDs() []string {
	ids := make([]string, 0, len(e.dialogues))
	for id := range e.dialogues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start begins a dialogue. An unknown id leaves the engine idle.
func (e *Engine) Start(id string) {
	dlg, ok := e.dialogues[id]
	e.cursor = 0
	e.awaitingChoice = false
	e.choiceLine = nil
	e.options = nil
	e.branchEnd = false
	if !ok {
		e.logger.Debug("start unknown dialogue", zap.String("dialogue", id))
		e.activeID = ""
		return
	}
	e.activeID = id

	if dlg.MemoryFlag != "" {
		state.SetFlag(e.state, dlg.MemoryFlag, true)
	}
	if _, ok := e.memory[id]; !ok {
		e.memory[id] = map[string]string{}
	}
	if _, ok := e.history[id]; !ok {
		e.history[id] = []string{}
	}
	e.logger.Debug("dialogue started", zap.String("dialogue", id))
}

// IsActive reports whether a dialogue is running.
func (e *Engine) IsActive() bool {
	return e.activeID != ""
}

// ActiveID returns the running dialogue id, or "" when idle.
func (e *Engine) ActiveID() string {
	return e.activeID
}

// AwaitingChoice reports whether Advance is blocked on Choose.
func (e *Engine) AwaitingChoice() bool {
	return e.awaitingChoice
}

// Options returns the filtered options of the current choice point.
func (e *Engine) Options() []types.DialogueOption {
	if !e.awaitingChoice {
		return nil
	}
	return slices.Clone(e.options)
}

// Memory returns a copy of a dialogue's memory store.
func (e *Engine) Memory(dialogueID string) map[string]string {
	out := make(map[string]string, len(e.memory[dialogueID]))
	for k, v := range e.memory[dialogueID] {
		out[k] = v
	}
	return out
}

// History returns the texts of the options chosen in a dialogue, oldest first.
func (e *Engine) History(dialogueID string) []string {
	return slices.Clone(e.history[dialogueID])
}

func (e *Engine) current() (types.Dialogue, bool) {
	if e.activeID == "" {
		return types.Dialogue{}, false
	}
	dlg, ok := e.dialogues[e.activeID]
	return dlg, ok
}

// CurrentNode returns the first eligible line at or after the cursor,
// moving the cursor past gated lines. Nil means the dialogue has run out;
// finishing is left to Advance.
func (e *Engine) CurrentNode() *types.DialogueLine {
	dlg, ok := e.current()
	if !ok {
		return nil
	}
	for e.cursor < len(dlg.Lines) {
		line := &dlg.Lines[e.cursor]
		if e.gatePasses(line.Condition, line.RequiresFlag, line.RequiresMemory) {
			return line
		}
		e.cursor++
	}
	return nil
}

// Advance moves past the current line, or enters AwaitingChoice when the
// current line has options.
func (e *Engine) Advance() *types.DialogueLine {
	node := e.CurrentNode()
	if node == nil {
		e.finish()
		return nil
	}

	if len(node.Options) > 0 {
		e.offerChoice(node)
		return node
	}

	e.applyEffects(node.SetFlag, node.ClearFlag, node.SetMemory)

	if node.Next != "" {
		return e.goTo(node.Next)
	}
	if e.branchEnd {
		e.finish()
		return nil
	}

	e.cursor++
	dlg, _ := e.current()
	if e.cursor >= len(dlg.Lines) {
		e.finish()
		return nil
	}

	node = e.CurrentNode()
	if node != nil && len(node.Options) > 0 {
		e.offerChoice(node)
	}
	return node
}

// Choose resolves the current choice point with the option at index.
// Out of range indexes and calls outside AwaitingChoice return nil and
// change nothing.
func (e *Engine) Choose(index int) *types.DialogueLine {
	if !e.awaitingChoice || index < 0 || index >= len(e.options) {
		return nil
	}
	choice := e.options[index]

	// The options line's own effects wait for the choice.
	if line := e.choiceLine; line != nil {
		e.applyEffects(line.SetFlag, line.ClearFlag, line.SetMemory)
	}
	e.applyEffects(choice.SetFlag, choice.ClearFlag, choice.SetMemory)

	e.awaitingChoice = false
	e.choiceLine = nil
	e.options = nil
	e.history[e.activeID] = append(e.history[e.activeID], choice.Text)

	if choice.Next != "" {
		return e.goTo(choice.Next)
	}

	e.cursor++
	dlg, _ := e.current()
	if e.cursor >= len(dlg.Lines) {
		e.finish()
		return nil
	}
	return e.CurrentNode()
}

// End finishes the running dialogue as if it had run out of lines.
func (e *Engine) End() {
	e.finish()
}

// Render pushes the current line and options to the presenter, if any.
func (e *Engine) Render() {
	if e.presenter == nil || !e.IsActive() {
		return
	}
	node := e.CurrentNode()
	if node == nil {
		return
	}
	e.presenter.ShowLine(node.Speaker, node.Text)
	if e.awaitingChoice {
		texts := make([]string, len(e.options))
		for i, opt := range e.options {
			texts[i] = opt.Text
		}
		e.presenter.ShowOptions(texts)
	}
}

// goTo jumps to a line id in the running dialogue, else restarts into
// another dialogue, else ends the dialogue.
func (e *Engine) goTo(target string) *types.DialogueLine {
	dlg, ok := e.current()
	if !ok {
		return nil
	}

	if idx := slices.IndexFunc(dlg.Lines, func(l types.DialogueLine) bool { return l.ID == target }); idx >= 0 {
		e.cursor = idx
		e.awaitingChoice = false
		e.choiceLine = nil
		e.options = nil
		// A jump leaves the natural order: falling off the landed branch
		// ends the dialogue instead of replaying what follows.
		e.branchEnd = true
		return e.CurrentNode()
	}

	if e.Has(target) {
		e.Start(target)
		e.branchEnd = false
		return e.CurrentNode()
	}

	e.logger.Debug("dialogue target not found, finishing",
		zap.String("dialogue", e.activeID), zap.String("target", target))
	e.finish()
	return nil
}

func (e *Engine) offerChoice(node *types.DialogueLine) {
	var opts []types.DialogueOption
	for _, opt := range node.Options {
		if e.gatePasses(opt.Condition, opt.RequiresFlag, opt.RequiresMemory) {
			opts = append(opts, opt)
		}
	}
	e.options = opts
	e.choiceLine = node
	e.awaitingChoice = true
}

func (e *Engine) gatePasses(condition, requiresFlag, requiresMemory string) bool {
	if !state.CheckCondition(e.state, condition) {
		return false
	}
	if requiresFlag != "" && !state.GetFlag(e.state, requiresFlag) {
		return false
	}
	return e.CheckMemory(requiresMemory)
}

func (e *Engine) applyEffects(setFlag, clearFlag string, setMemory map[string]any) {
	if setFlag != "" {
		state.SetFlag(e.state, setFlag, true)
	}
	if clearFlag != "" {
		state.SetFlag(e.state, clearFlag, false)
	}
	if len(setMemory) == 0 || e.activeID == "" {
		return
	}
	store := e.memory[e.activeID]
	if store == nil {
		store = map[string]string{}
		e.memory[e.activeID] = store
	}
	for k, v := range setMemory {
		store[k] = stringify(v)
	}
}

func (e *Engine) finish() {
	if dlg, ok := e.current(); ok {
		if dlg.OnComplete.SetFlag != "" {
			state.SetFlag(e.state, dlg.OnComplete.SetFlag, true)
		}
		e.logger.Debug("dialogue finished", zap.String("dialogue", dlg.ID))
	}
	e.activeID = ""
	e.awaitingChoice = false
	e.choiceLine = nil
	e.options = nil
	e.branchEnd = false
}
