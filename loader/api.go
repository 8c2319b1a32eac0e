package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerActionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Scene "id" { ... }: curried, Scene("id") returns a function taking a table.
	L.SetGlobal("Scene", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			mergeEach(getTable(tbl, "hotspots"))
			mergeEach(getTable(tbl, "events"))
			coll.scenes = append(coll.scenes, rawDef{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Dialogue "id" { lines = {...}, ... }
	L.SetGlobal("Dialogue", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.dialogues = append(coll.dialogues, rawDef{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Event { trigger = "delay", time = 2, SetFlag("bell") }: a global event.
	L.SetGlobal("Event", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		mergeAction(tbl)
		coll.events = append(coll.events, tbl)
		return 0
	}))

	// Hotspot "id" { area = {x, y, w, h}, OpenScene("garden") } returns the
	// hotspot table for a scene's hotspots list.
	L.SetGlobal("Hotspot", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			tbl.RawSetString("id", lua.LString(id))
			mergeAction(tbl)
			L.Push(tbl)
			return 1
		}))
		return 1
	}))
}

// registerActionHelpers registers helpers returning action tables. Each
// carries "action" plus both a hotspot "target" and event "params", so the
// same helper works in either place.
func registerActionHelpers(L *lua.LState) {
	targeted := map[string]struct{ action, param string }{
		"OpenScene":    {"open_scene", "scene"},
		"GotoScene":    {"goto_scene", "scene"},
		"ShowDialogue": {"show_dialogue", "dialogue"},
		"ToggleFlag":   {"toggle_flag", "flag"},
		"Teleport":     {"teleport", "target"},
		"ClearFlag":    {"clear_flag", "flag"},
		"GiveItem":     {"add_item", "item"},
		"RemoveItem":   {"remove_item", "item"},
		"AddClue":      {"add_clue", "clue"},
		"Say":          {"say", "text"},
	}
	for name, def := range targeted {
		def := def // per-iteration copy; go directive is below 1.22
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			arg := L.CheckString(1)
			params := L.NewTable()
			params.RawSetString(def.param, lua.LString(arg))
			L.Push(actionTable(L, def.action, arg, params))
			return 1
		}))
	}

	// SetFlag("flag") or SetFlag("flag", false)
	L.SetGlobal("SetFlag", L.NewFunction(func(L *lua.LState) int {
		flag := L.CheckString(1)
		params := L.NewTable()
		params.RawSetString("flag", lua.LString(flag))
		params.RawSetString("value", lua.LBool(L.OptBool(2, true)))
		L.Push(actionTable(L, "set_flag", flag, params))
		return 1
	}))

	// SetVar("key", value)
	L.SetGlobal("SetVar", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		params := L.NewTable()
		params.RawSetString("key", lua.LString(key))
		params.RawSetString("value", L.Get(2))
		L.Push(actionTable(L, "set_var", key, params))
		return 1
	}))
}

func actionTable(L *lua.LState, action, target string, params *lua.LTable) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("action", lua.LString(action))
	tbl.RawSetString("target", lua.LString(target))
	tbl.RawSetString("params", params)
	return tbl
}

// mergeAction folds a positional action table into tbl. Fields already set
// on tbl win.
func mergeAction(tbl *lua.LTable) {
	first, ok := tbl.RawGetInt(1).(*lua.LTable)
	if !ok || getString(first, "action") == "" {
		return
	}
	first.ForEach(func(k, v lua.LValue) {
		if tbl.RawGet(k) == lua.LNil {
			tbl.RawSet(k, v)
		}
	})
	tbl.RawSetInt(1, lua.LNil)
}

func mergeEach(list *lua.LTable) {
	if list == nil {
		return
	}
	list.ForEach(func(_, v lua.LValue) {
		if t, ok := v.(*lua.LTable); ok {
			mergeAction(t)
		}
	})
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}
