package loader

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

const gameLua = `
Game {
  title = "Lua Ruins",
  author = "Tester",
  start = "gate",
}
`

const scenesLua = `
Scene "gate" {
  background = "gate.png",
  features = { time_loop = 3000 },
  hotspots = {
    Hotspot "door" { area = {0, 0, 10, 10}, OpenScene("hall") },
    Hotspot "lever" { area = {20, 0, 5, 5}, ToggleFlag("lever_pulled"), condition = "not jammed" },
    Hotspot "keeper" { area = {40, 0, 5, 5}, ShowDialogue("keeper") },
  },
  events = {
    { id = "wind", trigger = "delay", time = 1.5, Say("The wind howls.") },
  },
}

Scene "hall" {}

Dialogue "keeper" {
  memory_flag = "met_keeper",
  lines = {
    { speaker = "Keeper", text = "Halt." },
    { options = {
        { text = "Let me pass.", next = "pass", set_memory = { asked = true } },
        { text = "Goodbye." },
    } },
    { id = "pass", text = "Very well." },
  },
}

Event { trigger = "condition", condition = "lever_pulled", SetFlag("gate_open") }
Event { trigger = "delay", time = 4, SetVar("bells", 3) }
`

func TestLoad_Lua(t *testing.T) {
	dir := writeGame(t, map[string]string{
		"game.lua":   gameLua,
		"scenes.lua": scenesLua,
	})

	defs, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if defs.Game.Title != "Lua Ruins" || defs.Game.Author != "Tester" || defs.Game.Start != "gate" {
		t.Errorf("game = %+v", defs.Game)
	}

	gate := defs.Scenes["gate"]
	if gate.ID != "gate" || gate.Background != "gate.png" || gate.Features.TimeLoop != 3000 {
		t.Errorf("gate = %+v", gate)
	}
	if len(gate.Hotspots) != 3 {
		t.Fatalf("expected 3 hotspots, got %+v", gate.Hotspots)
	}
	door := gate.Hotspots[0]
	if door.ID != "door" || door.Action != "open_scene" || door.Target != "hall" || len(door.Area) != 4 {
		t.Errorf("door = %+v", door)
	}
	lever := gate.Hotspots[1]
	if lever.Action != "toggle_flag" || lever.Target != "lever_pulled" || lever.Condition != "not jammed" {
		t.Errorf("lever = %+v", lever)
	}

	if len(gate.Events) != 1 {
		t.Fatalf("expected 1 scene event, got %+v", gate.Events)
	}
	wind := gate.Events[0]
	if wind.ID != "wind" || wind.Action != "say" || wind.Time != 1.5 || wind.Params["text"] != "The wind howls." {
		t.Errorf("wind = %+v", wind)
	}

	if _, ok := defs.Scenes["hall"]; !ok {
		t.Error("empty scene should still be defined")
	}

	keeper := defs.Dialogues["keeper"]
	if keeper.ID != "keeper" || keeper.MemoryFlag != "met_keeper" || len(keeper.Lines) != 3 {
		t.Fatalf("keeper = %+v", keeper)
	}
	opts := keeper.Lines[1].Options
	if len(opts) != 2 || opts[0].Next != "pass" || opts[0].SetMemory["asked"] != true {
		t.Errorf("options = %+v", opts)
	}

	if len(defs.Events) != 2 {
		t.Fatalf("expected 2 global events, got %+v", defs.Events)
	}
	if ev := defs.Events[0]; ev.Trigger != "condition" || ev.Action != "set_flag" || ev.Params["flag"] != "gate_open" {
		t.Errorf("event 0 = %+v", ev)
	}
	if ev := defs.Events[1]; ev.Action != "set_var" || ev.Params["value"] != 3 {
		t.Errorf("event 1 = %+v", ev)
	}
}

func TestLoad_LuaMixedWithYAML(t *testing.T) {
	dir := writeGame(t, map[string]string{
		"game.yaml":  "game: {title: Mixed, start: hall}\n",
		"scenes.lua": `Scene "hall" { background = "hall.png" }`,
	})

	defs, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if defs.Game.Title != "Mixed" || defs.Scenes["hall"].Background != "hall.png" {
		t.Errorf("defs = %+v", defs)
	}
}

func TestLoad_LuaErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `Game {`},
		{"sandboxed dofile", `dofile("/etc/passwd")`},
		{"scene body not a table", `Scene "hall" (42)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeGame(t, map[string]string{"game.lua": tt.src})
			if _, err := Load(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestToGoValue(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(`v = { list = {1, 2.5, "x"}, map = { a = true }, empty = {} }`); err != nil {
		t.Fatal(err)
	}
	got, ok := toGoValue(L.GetGlobal("v")).(map[string]any)
	if !ok {
		t.Fatal("expected a map")
	}

	list, _ := got["list"].([]any)
	if len(list) != 3 || list[0] != 1 || list[1] != 2.5 || list[2] != "x" {
		t.Errorf("list = %v", got["list"])
	}
	if m, _ := got["map"].(map[string]any); m["a"] != true {
		t.Errorf("map = %v", got["map"])
	}
	if got["empty"] != nil {
		t.Errorf("empty table = %v, want nil", got["empty"])
	}
}

func TestMergeAction(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(`t = { action = "keep", { action = "say", target = "x", params = { text = "hi" } } }`); err != nil {
		t.Fatal(err)
	}
	tbl := L.GetGlobal("t").(*lua.LTable)
	mergeAction(tbl)

	if getString(tbl, "action") != "keep" {
		t.Error("existing fields must win")
	}
	if getString(tbl, "target") != "x" || getTable(tbl, "params") == nil {
		t.Error("missing fields should be merged")
	}
	if tbl.MaxN() != 0 {
		t.Error("positional action should be removed")
	}
}
