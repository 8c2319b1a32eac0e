// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the adventure engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PtiCalin/simple-game-engine/engine"
	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/engine/save/slots"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/locale"
	"github.com/PtiCalin/simple-game-engine/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Slots     *slots.Store    // optional; enables /slot
	Locale    *locale.Manager // optional; enables /locale
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	// Clock returns milliseconds since the game started. Nil means wall
	// clock time; scripts fix it so only "wait" moves time.
	Clock func() int64

	lastCmd string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Engine:  eng,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".adventure", "saves"),
	}
}

// Run starts the game loop: enter the first scene, then
// prompt → frame → input → dispatch → output until input ends or /quit.
func (c *CLI) Run() {
	clock := c.Clock
	if clock == nil {
		start := time.Now()
		clock = func() int64 { return time.Since(start).Milliseconds() }
	}

	c.printResult(c.Engine.Start())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		// Time passed while the player was typing.
		c.frame(clock())

		input := strings.TrimSpace(scanner.Text())
		if input == "" && !c.Engine.Dialogue.IsActive() {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if input != "" {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// frame advances the engine clock and prints what the timeline produced.
// A dialogue started by the timeline is shown as it begins.
func (c *CLI) frame(tick int64) {
	wasTalking := c.Engine.Dialogue.IsActive()
	v := c.Engine.Frame(tick)
	for _, line := range v.Output {
		c.printLine(line)
	}
	if wasTalking || v.Line == "" {
		return
	}
	if v.Speaker != "" {
		c.printLine(v.Speaker + ": " + v.Line)
	} else {
		c.printLine(v.Line)
	}
	for i, opt := range v.Options {
		c.printLine(fmt.Sprintf("  %d. %s", i+1, opt))
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/slot":
		c.cmdSlot(args)

	case "/locale":
		c.cmdLocale(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) savePath(name string) string {
	if name == "" {
		name = "quicksave"
	}
	return filepath.Join(c.SaveDir, name+".json")
}

func (c *CLI) cmdSave(name string) {
	if err := save.WriteFile(c.savePath(name), c.Engine.State); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if name == "" {
		name = "quicksave"
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if err := save.ReadFile(c.savePath(name), c.Engine.State); err != nil {
		if save.IsNotFound(err) {
			c.printSystem("No saved game by that name.")
			return
		}
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	if name == "" {
		name = "quicksave"
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s.", name))
	c.printResult(c.Engine.Resume())
}

// cmdSlot handles /slot list, /slot save N, /slot load N and /slot delete N.
func (c *CLI) cmdSlot(args []string) {
	if c.Slots == nil {
		c.printSystem("Save slots are not configured.")
		return
	}
	ctx := context.Background()

	if len(args) == 0 || args[0] == "list" {
		list, err := c.Slots.List(ctx)
		if err != nil {
			c.printSystem(fmt.Sprintf("Listing slots failed: %v", err))
			return
		}
		if len(list) == 0 {
			c.printSystem("No saved slots.")
			return
		}
		for _, sl := range list {
			c.printSystem(fmt.Sprintf("Slot %d: %s (%s)", sl.ID, sl.SceneID, sl.SavedAt.Format(time.DateTime)))
		}
		return
	}

	if len(args) < 2 {
		c.printSystem("Usage: /slot save|load|delete <number>")
		return
	}
	id, err := strconv.Atoi(args[1])
	if err != nil || id < 1 {
		c.printSystem(fmt.Sprintf("Invalid slot number %q.", args[1]))
		return
	}

	switch args[0] {
	case "save":
		if _, err := c.Slots.SaveSlot(ctx, id, c.Engine.State); err != nil {
			c.printSystem(fmt.Sprintf("Save failed: %v", err))
			return
		}
		c.printSystem(fmt.Sprintf("Game saved to slot %d.", id))

	case "load":
		rec, _, err := c.Slots.LoadSlot(ctx, id)
		if errors.Is(err, slots.ErrSlotNotFound) {
			c.printSystem(fmt.Sprintf("Slot %d is empty.", id))
			return
		}
		if err != nil {
			c.printSystem(fmt.Sprintf("Load failed: %v", err))
			return
		}
		save.Apply(c.Engine.State, rec)
		c.printSystem(fmt.Sprintf("Game loaded from slot %d.", id))
		c.printResult(c.Engine.Resume())

	case "delete":
		if err := c.Slots.DeleteSlot(ctx, id); err != nil {
			c.printSystem(fmt.Sprintf("Delete failed: %v", err))
			return
		}
		c.printSystem(fmt.Sprintf("Slot %d deleted.", id))

	default:
		c.printSystem("Usage: /slot save|load|delete <number>")
	}
}

func (c *CLI) cmdLocale(code string) {
	if c.Locale == nil {
		c.printSystem("Localization is not configured.")
		return
	}
	if code == "" {
		c.printSystem(fmt.Sprintf("Locale: %s (available: %s)",
			c.Locale.Locale(), strings.Join(c.Locale.Available(), ", ")))
		return
	}
	c.Locale.SetLocale(code)
	c.printSystem(fmt.Sprintf("Locale set to %s.", c.Locale.Locale()))
}

func (c *CLI) cmdHelp() {
	help := []string{
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
		"  <n> / choose <n>      Pick a dialogue option",
		"  (empty line)          Continue a conversation",
		"  go <scene>            Return to a scene you have visited",
		"  back                  Leave a close-up",
		"  inventory (i)         Check what you're carrying",
		"  wait [ms] (z)         Let time pass",
		"  again (g)             Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.Engine.State
	c.printSystem(fmt.Sprintf("Scene: %s (stack %v)", s.CurrentScene, c.Engine.Scenes.IDs()))
	c.printSystem(fmt.Sprintf("Unlocked: %v", s.UnlockedScenes))
	c.printSystem(fmt.Sprintf("Inventory: %v", s.Inventory))
	c.printSystem(fmt.Sprintf("Time: %d ms (scene timeline %.2fs)", c.Engine.Now(), c.Engine.Timeline.Elapsed()))
	if flags := setFlags(s.Flags); len(flags) > 0 {
		c.printSystem(fmt.Sprintf("Flags: %s", strings.Join(flags, ", ")))
	}
	if len(s.Variables) > 0 {
		c.printSystem(fmt.Sprintf("Variables: %v", s.Variables))
	}
	if len(s.Clues) > 0 {
		c.printSystem(fmt.Sprintf("Clues: %v", s.Clues))
	}
	if id := c.Engine.Dialogue.ActiveID(); id != "" {
		c.printSystem(fmt.Sprintf("Dialogue: %s", id))
	}
}

func setFlags(flags map[string]bool) []string {
	var out []string
	for k, v := range flags {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Effects) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Params))
		}
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s", e.Type))
		}
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
