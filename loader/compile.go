// Package loader loads game content (YAML, JSON and Lua files) into Go
// structs. Lua runs only at load time; the VM is discarded afterwards.
package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"

	"github.com/PtiCalin/simple-game-engine/engine/dialogue"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// rawDef holds an id-named Lua table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// document is the top level of a YAML or JSON content file. A file may
// carry any mix of sections. A "scene" section takes the top-level
// "hotspots" and "events" with it; without one, top-level events are global.
type document struct {
	Game      *types.GameDef           `yaml:"game"`
	Scene     *types.Scene             `yaml:"scene"`
	Scenes    []types.Scene            `yaml:"scenes"`
	Hotspots  []types.Hotspot          `yaml:"hotspots"`
	Events    []types.TimelineEventDef `yaml:"events"`
	Dialogue  *yaml.Node               `yaml:"dialogue"`
	Dialogues []yaml.Node              `yaml:"dialogues"`
}

// decodeDocument merges one content document into defs. fileID names a
// scene section that has no id of its own.
func decodeDocument(data []byte, fileID string, defs *state.Defs) ([]string, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Game != nil {
		defs.Game = *doc.Game
	}

	for _, sc := range doc.Scenes {
		addScene(defs, sc)
	}
	if doc.Scene != nil {
		sc := *doc.Scene
		if sc.ID == "" {
			sc.ID = fileID
		}
		sc.Hotspots = append(sc.Hotspots, doc.Hotspots...)
		sc.Events = append(sc.Events, doc.Events...)
		addScene(defs, sc)
	} else {
		defs.Events = append(defs.Events, doc.Events...)
	}

	var skipped []string
	if doc.Dialogue != nil || len(doc.Dialogues) > 0 {
		dialogues, reasons, err := dialogue.Parse(data)
		if err != nil {
			return nil, err
		}
		skipped = append(skipped, reasons...)
		for _, d := range dialogues {
			defs.Dialogues[d.ID] = d
		}
	}
	return skipped, nil
}

// addScene stores sc, replacing any earlier scene with the same id.
func addScene(defs *state.Defs, sc types.Scene) {
	if sc.ID == "" {
		return
	}
	defs.Scenes[sc.ID] = sc
}

// compile converts the collected Lua data into defs and returns the
// reasons for anything it skipped.
func compile(coll *collector, defs *state.Defs) ([]string, error) {
	if coll.game != nil {
		if err := decodeTable(coll.game, &defs.Game); err != nil {
			return nil, fmt.Errorf("compiling Game: %w", err)
		}
	}

	for _, raw := range coll.scenes {
		var sc types.Scene
		if err := decodeTable(raw.table, &sc); err != nil {
			return nil, fmt.Errorf("compiling scene %s: %w", raw.id, err)
		}
		sc.ID = raw.id
		addScene(defs, sc)
	}

	var skipped []string
	for _, raw := range coll.dialogues {
		body, ok := toGoValue(raw.table).(map[string]any)
		if !ok {
			skipped = append(skipped, fmt.Sprintf("dialogue %s: not a table of fields", raw.id))
			continue
		}
		body["id"] = raw.id
		data, err := yaml.Marshal(map[string]any{"dialogue": body})
		if err != nil {
			return nil, fmt.Errorf("compiling dialogue %s: %w", raw.id, err)
		}
		dialogues, reasons, err := dialogue.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("compiling dialogue %s: %w", raw.id, err)
		}
		for _, reason := range reasons {
			skipped = append(skipped, fmt.Sprintf("dialogue %s: %s", raw.id, reason))
		}
		for _, d := range dialogues {
			defs.Dialogues[d.ID] = d
		}
	}

	for i, tbl := range coll.events {
		var ev types.TimelineEventDef
		if err := decodeTable(tbl, &ev); err != nil {
			return nil, fmt.Errorf("compiling event %d: %w", i+1, err)
		}
		defs.Events = append(defs.Events, ev)
	}
	return skipped, nil
}

// decodeTable decodes a Lua table into out using the same field names as
// the YAML content format.
func decodeTable(tbl *lua.LTable, out any) error {
	data, err := yaml.Marshal(toGoValue(tbl))
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// toGoValue converts a Lua value to a Go value recursively. Empty tables
// become nil so they decode as empty lists and empty maps alike.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Sequential integer keys starting at 1 make an array.
		if maxN := val.MaxN(); maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		if len(m) == 0 {
			return nil
		}
		return m
	default:
		return nil
	}
}
