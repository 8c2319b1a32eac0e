// Adventure runs point-and-click scene games: scenes with hotspots,
// branching dialogue and a timeline of scripted events.
// Usage: adventure [--version] [--plain] [--script <file>] [--trace] [--locale <code>] [--export-missing <file>] [game_directory]
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/PtiCalin/simple-game-engine/cli"
	"github.com/PtiCalin/simple-game-engine/config"
	"github.com/PtiCalin/simple-game-engine/engine"
	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/engine/save/slots"
	"github.com/PtiCalin/simple-game-engine/loader"
	"github.com/PtiCalin/simple-game-engine/locale"
	"github.com/PtiCalin/simple-game-engine/logging"
	"github.com/PtiCalin/simple-game-engine/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: adventure [--version] [--plain] [--script <file>] [--trace] [--locale <code>] [--export-missing <file>] [game_directory]"

func main() {
	if err := start(os.Args[1:]); err != nil {
		config.Exitf("%v", err)
	}
}

// start runs the game for the given command-line arguments. Every failure
// is returned so deferred cleanup runs before the process exits.
func start(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	plain := false
	trace := false
	var scriptFile, exportMissing string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("adventure %s (commit %s, built %s)\n", version, commit, date)
			return nil
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script", "--locale", "--export-missing":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", args[i])
			}
			i++
			switch args[i-1] {
			case "--script":
				scriptFile = args[i]
			case "--locale":
				cfg.Locale = args[i]
			default:
				exportMissing = args[i]
			}
		default:
			cfg.ContentDir = args[i]
		}
	}

	if cfg.ContentDir == "" {
		return errors.New(usage)
	}

	useTUI := scriptFile == "" && !plain && isTerminal()
	logger, err := newLogger(cfg, useTUI)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	defs, err := loader.Load(cfg.ContentDir, loader.WithLogger(logger.Named("loader")))
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	localesDir := cfg.LocalesDir
	if localesDir == "" {
		localesDir = filepath.Join(cfg.ContentDir, "locales")
	}
	translations := locale.New(cfg.Locale, locale.WithLogger(logger.Named("locale")))
	if err := translations.LoadDir(localesDir); err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}

	store := save.NewStore(cfg.SaveFile, logger.Named("save"))
	eng := engine.New(defs,
		engine.WithLogger(logger),
		engine.WithStore(store),
		engine.WithTranslator(translations),
	)
	if err := store.Restore(eng.State); err != nil && !save.IsNotFound(err) {
		fmt.Fprintf(os.Stderr, "Ignoring unreadable save %s: %v\n", cfg.SaveFile, err)
	}

	var slotStore *slots.Store
	if cfg.SlotsDB != "" {
		slotStore, err = slots.Open(cfg.SlotsDB)
		if err != nil {
			return fmt.Errorf("opening save slots: %w", err)
		}
		defer slotStore.Close()
	}

	if err := run(cfg, eng, translations, slotStore, scriptFile, trace, useTUI, logger); err != nil {
		return err
	}

	if exportMissing != "" {
		if err := translations.ExportMissing(exportMissing); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting missing translations: %v\n", err)
		}
	}
	return nil
}

func run(cfg config.Config, eng *engine.Engine, translations *locale.Manager, slotStore *slots.Store,
	scriptFile string, trace, useTUI bool, logger *zap.Logger) error {
	defs := eng.Defs

	if useTUI {
		err := tui.Run(eng, defs,
			tui.WithSlots(slotStore),
			tui.WithLocale(translations),
			tui.WithFrameInterval(time.Duration(cfg.FrameMillis)*time.Millisecond),
		)
		if err != nil {
			logger.Error("tui stopped", zap.Error(err))
			return err
		}
		return nil
	}

	c := cli.New(eng, defs)
	c.Trace = trace
	c.Slots = slotStore
	c.Locale = translations

	// Script mode: open file, echo commands, and only "wait" moves time.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
		c.Clock = func() int64 { return 0 }
	}
	fmt.Fprintf(c.Out, "%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
	c.Run()
	return nil
}

// newLogger builds the configured logger. The TUI owns the terminal, so
// without a log file it logs nothing.
func newLogger(cfg config.Config, useTUI bool) (*zap.Logger, error) {
	if useTUI && cfg.LogFile == "" {
		return zap.NewNop(), nil
	}
	return logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogFormat,
		OutputPath: cfg.LogFile,
	})
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
