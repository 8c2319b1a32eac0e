package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game      *lua.LTable
	scenes    []rawDef
	dialogues []rawDef
	events    []*lua.LTable
}

// Option configures Load.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger logs skipped entries and validation warnings to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Load reads every content file in dir, compiles them into game
// definitions, validates references, and returns the immutable Defs.
// YAML and JSON documents are decoded directly; Lua files run in a
// sandboxed VM that is discarded after loading.
func Load(dir string, opts ...Option) (*state.Defs, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && isContentFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no content files found in %s", dir)
	}
	files = sortedContentFiles(files)

	defs := &state.Defs{
		Scenes:    map[string]types.Scene{},
		Dialogues: map[string]types.Dialogue{},
	}
	var warnings []string

	var luaFiles []string
	for _, f := range files {
		if filepath.Ext(f) == ".lua" {
			luaFiles = append(luaFiles, f)
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		skipped, err := decodeDocument(data, sceneIDFromFile(f), defs)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f, err)
		}
		for _, reason := range skipped {
			warnings = append(warnings, fmt.Sprintf("%s: %s", f, reason))
		}
	}

	if len(luaFiles) > 0 {
		skipped, err := runLua(dir, luaFiles, defs)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, skipped...)
	}

	ve := validate(defs)
	ve.Warnings = append(warnings, ve.Warnings...)
	for _, w := range ve.Warnings {
		o.logger.Warn("content warning", zap.String("warning", w))
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}

	o.logger.Info("content loaded",
		zap.String("dir", dir),
		zap.Int("scenes", len(defs.Scenes)),
		zap.Int("dialogues", len(defs.Dialogues)),
		zap.Int("events", len(defs.Events)))
	return defs, nil
}

// runLua executes the Lua content files in one VM and compiles what they
// declared into defs.
func runLua(dir string, files []string, defs *state.Defs) ([]string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range files {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	skipped, err := compile(coll, defs)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}
	return skipped, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must load the same way every time.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}

func isContentFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json", ".lua":
		return true
	}
	return false
}

// sortedContentFiles puts game files first and the rest in name order.
func sortedContentFiles(files []string) []string {
	var game, others []string
	for _, f := range files {
		if sceneIDFromFile(f) == "game" {
			game = append(game, f)
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(game)
	sort.Strings(others)
	return append(game, others...)
}

// sceneIDFromFile is the id a scene document gets when it names none.
func sceneIDFromFile(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
