package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PtiCalin/simple-game-engine/engine"
	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/engine/save/slots"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/locale"
	"github.com/PtiCalin/simple-game-engine/types"
)

// DefaultFrameInterval is how often the engine clock advances.
const DefaultFrameInterval = 50 * time.Millisecond

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Option configures a Model.
type Option func(*Model)

// WithSlots enables the /slot commands.
func WithSlots(st *slots.Store) Option {
	return func(m *Model) { m.slots = st }
}

// WithLocale enables the /locale command.
func WithLocale(l *locale.Manager) Option {
	return func(m *Model) { m.locale = l }
}

// WithSaveDir sets where /save and /load keep their files.
func WithSaveDir(dir string) Option {
	return func(m *Model) { m.saveDir = dir }
}

// WithFrameInterval sets the time between engine frames.
func WithFrameInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.frameInterval = d
		}
	}
}

// Model is the Bubble Tea model for the adventure TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs
	slots  *slots.Store
	locale *locale.Manager

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	// view is the last frame drawn by the engine.
	view          engine.View
	started       time.Time
	frameInterval time.Duration

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
	saveDir  string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// startMsg enters the first scene from inside the Update loop.
type startMsg struct{}

// frameMsg is one tick of the frame clock.
type frameMsg time.Time

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	m := Model{
		engine:        eng,
		defs:          defs,
		input:         ti,
		history:       NewHistory(100),
		saveDir:       filepath.Join(home, ".adventure", "saves"),
		frameInterval: DefaultFrameInterval,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, defs *state.Defs, opts ...Option) error {
	m := New(eng, defs, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init starts the game once the program is running.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return startMsg{} })
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// start enters the first scene and starts the frame clock.
func (m Model) start(now time.Time) Model {
	var lines []string
	if v := m.defs.Game.Version; v != "" {
		lines = append(lines, fmt.Sprintf("v%s by %s", v, m.defs.Game.Author), "")
	}
	lines = append(lines, m.engine.Start().Output...)

	m.started = now
	m.view = m.engine.View()
	return m.appendOutput(gameOutputMsg{lines: lines})
}

// frame advances the engine to now. A dialogue started by the timeline is
// written to the narrative as it begins.
func (m Model) frame(now time.Time) Model {
	wasTalking := m.engine.Dialogue.IsActive()
	v := m.engine.Frame(now.Sub(m.started).Milliseconds())
	m.view = v

	lines := v.Output
	if !wasTalking && v.Line != "" {
		lines = append(lines, dialogueLines(v)...)
	}
	if len(lines) == 0 {
		m.refreshViewport()
		return m
	}
	return m.appendOutput(gameOutputMsg{lines: lines})
}

// Update handles messages (key presses, window resize, frames, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(m.width, m.viewportHeight())
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
		}

		m.refreshViewport()

	case startMsg:
		m = m.start(time.Now())
		return m, m.tick()

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m = m.frame(time.Time(msg))
		return m, m.tick()

	case tea.MouseMsg:
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(m.input.Value()); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			next, ok := m.history.Next()
			m.input.SetValue(next)
			m.input.CursorEnd()
			if !ok {
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line. An empty line continues
// a running conversation.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		if !m.engine.Dialogue.IsActive() {
			return m, nil
		}
		m = m.step("")
		return m, nil
	}

	m.history.Push(input)

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m.view = m.engine.View()
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m = m.step(input)
	return m, nil
}

// step runs one game command and appends its output.
func (m Model) step(input string) Model {
	result := m.engine.Step(input)
	output := result.Output
	if m.trace {
		output = append(output, m.formatTrace(result)...)
	}
	m.view = m.engine.View()
	return m.appendOutput(gameOutputMsg{input: input, lines: output})
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// viewportHeight is what is left after the dialogue box, the status bar and
// the input line.
func (m Model) viewportHeight() int {
	h := m.height - 2
	if box := m.renderDialogueBox(); box != "" {
		h -= lipgloss.Height(box)
	}
	return max(h, 1)
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.Height = m.viewportHeight()

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindNotice:
		return styledNotice(line)
	case kindTitle:
		return styleTitle.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindOption:
		return styleOption.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleSceneDesc.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport, dialogue box, status bar and
// input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	parts := []string{m.viewport.View()}
	if box := m.renderDialogueBox(); box != "" {
		parts = append(parts, box)
	}
	parts = append(parts, m.renderStatusBar(), m.input.View())
	return strings.Join(parts, "\n")
}

// renderDialogueBox draws the current dialogue line and options, or nothing
// when no one is talking.
func (m Model) renderDialogueBox() string {
	v := m.view
	if v.Line == "" && !v.AwaitingChoice {
		return ""
	}

	var lines []string
	if v.Line != "" {
		if v.Speaker != "" {
			lines = append(lines, styleSpeaker.Render(v.Speaker)+" "+styleDialogue.Render(v.Line))
		} else {
			lines = append(lines, styleDialogue.Render(v.Line))
		}
	}
	if v.AwaitingChoice {
		for i, opt := range v.Options {
			lines = append(lines, styleOption.Render(fmt.Sprintf("%d. %s", i+1, opt)))
		}
		lines = append(lines, styleTrace.Render(fmt.Sprintf("type 1-%d to answer", len(v.Options))))
	} else {
		lines = append(lines, styleTrace.Render("press enter to continue"))
	}

	box := styleDialogueBox
	if m.width > 4 {
		box = box.Width(m.width - 2)
	}
	return box.Render(strings.Join(lines, "\n"))
}

// dialogueLines renders a dialogue line the way the engine writes it to the
// narrative.
func dialogueLines(v engine.View) []string {
	var lines []string
	if v.Speaker != "" {
		lines = append(lines, v.Speaker+": "+v.Line)
	} else {
		lines = append(lines, v.Line)
	}
	for i, opt := range v.Options {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, opt))
	}
	return lines
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/slot":
		return m.cmdSlot(args), false

	case "/locale":
		return m.cmdLocale(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	path := filepath.Join(m.saveDir, name+".json")
	if err := save.WriteFile(path, m.engine.State); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	path := filepath.Join(m.saveDir, name+".json")
	if err := save.ReadFile(path, m.engine.State); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	output := []string{fmt.Sprintf("Game loaded from %s.", name)}
	return append(output, m.engine.Resume().Output...)
}

func (m *Model) cmdSlot(args []string) []string {
	if m.slots == nil {
		return []string{"Save slots are not configured."}
	}
	ctx := context.Background()

	if len(args) == 0 || args[0] == "list" {
		list, err := m.slots.List(ctx)
		if err != nil {
			return []string{fmt.Sprintf("Listing slots failed: %v", err)}
		}
		if len(list) == 0 {
			return []string{"No saved slots."}
		}
		out := make([]string, 0, len(list))
		for _, sl := range list {
			out = append(out, fmt.Sprintf("Slot %d: %s (%s)", sl.ID, sl.SceneID, sl.SavedAt.Format(time.DateTime)))
		}
		return out
	}

	if len(args) < 2 {
		return []string{"Usage: /slot save|load|delete <number>"}
	}
	id, err := strconv.Atoi(args[1])
	if err != nil || id < 1 {
		return []string{fmt.Sprintf("Invalid slot number %q.", args[1])}
	}

	switch args[0] {
	case "save":
		if _, err := m.slots.SaveSlot(ctx, id, m.engine.State); err != nil {
			return []string{fmt.Sprintf("Save failed: %v", err)}
		}
		return []string{fmt.Sprintf("Game saved to slot %d.", id)}

	case "load":
		rec, _, err := m.slots.LoadSlot(ctx, id)
		if errors.Is(err, slots.ErrSlotNotFound) {
			return []string{fmt.Sprintf("Slot %d is empty.", id)}
		}
		if err != nil {
			return []string{fmt.Sprintf("Load failed: %v", err)}
		}
		save.Apply(m.engine.State, rec)
		output := []string{fmt.Sprintf("Game loaded from slot %d.", id)}
		return append(output, m.engine.Resume().Output...)

	case "delete":
		if err := m.slots.DeleteSlot(ctx, id); err != nil {
			return []string{fmt.Sprintf("Delete failed: %v", err)}
		}
		return []string{fmt.Sprintf("Slot %d deleted.", id)}

	default:
		return []string{"Usage: /slot save|load|delete <number>"}
	}
}

func (m *Model) cmdLocale(code string) []string {
	if m.locale == nil {
		return []string{"Localization is not configured."}
	}
	if code == "" {
		return []string{fmt.Sprintf("Locale: %s (available: %s)",
			m.locale.Locale(), strings.Join(m.locale.Available(), ", "))}
	}
	m.locale.SetLocale(code)
	return []string{fmt.Sprintf("Locale set to %s.", m.locale.Locale())}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]          Save game (default: quicksave)",
		"  /load [name]          Load game (default: quicksave)",
		"  /slot list            List save slots",
		"  /slot save|load|delete <n>",
		"  /locale [code]        Show or switch the language",
		"  /quit                 Exit game",
		"  /help                 Show this help",
		"  /state                Debug: dump current state",
		"  /trace                Toggle debug trace output",
		"",
		"Game commands:",
		"  look (l)              Describe the scene",
		"  click <hotspot>       Use something in the scene",
		"  click <x> <y>         Click a point in the scene",
		"  talk <someone>        Start a conversation",
		"  <n>                   Pick a dialogue option",
		"  enter                 Continue a conversation",
		"  go <scene>            Return to a scene you have visited",
		"  back                  Leave a close-up",
		"  inventory (i)         Check what you're carrying",
		"  wait [ms] (z)         Let time pass",
		"  again (g)             Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func (m *Model) cmdState() []string {
	s := m.engine.State
	output := []string{
		fmt.Sprintf("Scene: %s (stack %v)", s.CurrentScene, m.engine.Scenes.IDs()),
		fmt.Sprintf("Unlocked: %v", s.UnlockedScenes),
		fmt.Sprintf("Inventory: %v", s.Inventory),
		fmt.Sprintf("Time: %d ms (scene timeline %.2fs)", m.engine.Now(), m.engine.Timeline.Elapsed()),
	}
	if flags := setFlags(s.Flags); len(flags) > 0 {
		output = append(output, fmt.Sprintf("Flags: %s", strings.Join(flags, ", ")))
	}
	if len(s.Variables) > 0 {
		output = append(output, fmt.Sprintf("Variables: %v", s.Variables))
	}
	if len(s.Clues) > 0 {
		output = append(output, fmt.Sprintf("Clues: %v", s.Clues))
	}
	if id := m.engine.Dialogue.ActiveID(); id != "" {
		output = append(output, fmt.Sprintf("Dialogue: %s", id))
	}
	return output
}

func (m *Model) formatTrace(result types.Result) []string {
	var lines []string
	if len(result.Effects) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Params))
		}
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s", e.Type))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
