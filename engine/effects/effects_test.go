package effects

import (
	"testing"

	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

type fakeHost struct {
	scenes    []string
	dialogues []string
}

func (h *fakeHost) OpenScene(id string)     { h.scenes = append(h.scenes, id) }
func (h *fakeHost) StartDialogue(id string) { h.dialogues = append(h.dialogues, id) }

type countingPersister struct{ calls int }

func (p *countingPersister) Persist(*types.State) { p.calls++ }

func testContext() (Context, *fakeHost, *countingPersister) {
	host := &fakeHost{}
	p := &countingPersister{}
	return Context{State: state.NewState(), Host: host, Persister: p}, host, p
}

func TestApply_SetFlag(t *testing.T) {
	ctx, _, p := testContext()

	events, _ := Apply(ctx, []types.Effect{
		{Type: "set_flag", Params: map[string]any{"flag": "door"}},
	})

	if !state.GetFlag(ctx.State, "door") {
		t.Error("expected door flag set")
	}
	if p.calls != 1 {
		t.Errorf("expected 1 persist, got %d", p.calls)
	}
	if len(events) != 1 || events[0].Type != "flag_changed" {
		t.Errorf("expected flag_changed event, got %v", events)
	}
}

func TestApply_SetFlagExplicitValue(t *testing.T) {
	ctx, _, _ := testContext()
	state.SetFlag(ctx.State, "lit", true)

	Apply(ctx, []types.Effect{
		{Type: "set_flag", Params: map[string]any{"flag": "lit", "value": false}},
	})

	if state.GetFlag(ctx.State, "lit") {
		t.Error("expected lit cleared by value=false")
	}
}

func TestApply_ToggleAndClearFlag(t *testing.T) {
	ctx, _, p := testContext()

	Apply(ctx, []types.Effect{
		{Type: "toggle_flag", Params: map[string]any{"flag": "lamp"}},
	})
	if !state.GetFlag(ctx.State, "lamp") {
		t.Error("expected lamp toggled on")
	}

	Apply(ctx, []types.Effect{
		{Type: "clear_flag", Params: map[string]any{"flag": "lamp"}},
	})
	if state.GetFlag(ctx.State, "lamp") {
		t.Error("expected lamp cleared")
	}
	if p.calls != 2 {
		t.Errorf("expected 2 persists, got %d", p.calls)
	}
}

func TestApply_MissingFlagParamIsNoop(t *testing.T) {
	ctx, _, p := testContext()

	events, _ := Apply(ctx, []types.Effect{
		{Type: "set_flag", Params: map[string]any{"flag": 12}},
		{Type: "toggle_flag", Params: nil},
	})

	if len(events) != 0 || len(ctx.State.Flags) != 0 || p.calls != 0 {
		t.Errorf("expected nothing to happen, events=%v flags=%v persists=%d", events, ctx.State.Flags, p.calls)
	}
}

func TestApply_InventoryVarsAndClues(t *testing.T) {
	ctx, _, _ := testContext()

	events, _ := Apply(ctx, []types.Effect{
		{Type: "add_item", Params: map[string]any{"item": "key"}},
		{Type: "add_item", Params: map[string]any{"item": "key"}},
		{Type: "set_var", Params: map[string]any{"key": "code", "value": 1234}},
		{Type: "add_clue", Params: map[string]any{"clue": "footprint"}},
		{Type: "remove_item", Params: map[string]any{"item": "missing"}},
	})

	if len(ctx.State.Inventory) != 1 {
		t.Errorf("inventory = %v", ctx.State.Inventory)
	}
	if ctx.State.Variables["code"] != 1234 {
		t.Errorf("code = %v", ctx.State.Variables["code"])
	}
	if len(ctx.State.Clues) != 1 || ctx.State.Clues[0] != "footprint" {
		t.Errorf("clues = %v", ctx.State.Clues)
	}
	// item_added once, var_changed, clue_found; duplicates and misses emit nothing.
	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d: %v", len(events), events)
	}

	Apply(ctx, []types.Effect{{Type: "remove_item", Params: map[string]any{"item": "key"}}})
	if state.HasItem(ctx.State, "key") {
		t.Error("expected key removed")
	}
}

func TestApply_HostEffects(t *testing.T) {
	ctx, host, _ := testContext()

	Apply(ctx, []types.Effect{
		{Type: "show_dialogue", Params: map[string]any{"text": "gatekeeper_intro"}},
		{Type: "show_dialogue", Params: map[string]any{"dialogue": "merchant"}},
		{Type: "goto_scene", Params: map[string]any{"scene": "garden"}},
		{Type: "open_scene", Params: map[string]any{"scene": "hall"}},
		{Type: "teleport", Params: map[string]any{"target": "north:tower"}},
		{Type: "teleport", Params: map[string]any{"target": "cellar"}},
	})

	wantDialogues := []string{"gatekeeper_intro", "merchant"}
	if len(host.dialogues) != 2 || host.dialogues[0] != wantDialogues[0] || host.dialogues[1] != wantDialogues[1] {
		t.Errorf("dialogues = %v, want %v", host.dialogues, wantDialogues)
	}
	wantScenes := []string{"garden", "hall", "tower", "cellar"}
	if len(host.scenes) != len(wantScenes) {
		t.Fatalf("scenes = %v, want %v", host.scenes, wantScenes)
	}
	for i, s := range wantScenes {
		if host.scenes[i] != s {
			t.Errorf("scene[%d] = %q, want %q", i, host.scenes[i], s)
		}
	}
}

func TestApply_HostEffectsWithoutHostAreSkipped(t *testing.T) {
	ctx := Context{State: state.NewState()}

	events, output := Apply(ctx, []types.Effect{
		{Type: "show_dialogue", Params: map[string]any{"text": "intro"}},
		{Type: "goto_scene", Params: map[string]any{"scene": "garden"}},
	})

	if len(events) != 0 || len(output) != 0 {
		t.Errorf("expected silent skip, got events=%v output=%v", events, output)
	}
}

func TestApply_SayInterpolation(t *testing.T) {
	ctx, _, _ := testContext()
	state.SetScene(ctx.State, "cellar")
	state.SetVar(ctx.State, "code", 7391)

	_, output := Apply(ctx, []types.Effect{
		{Type: "say", Params: map[string]any{"text": "In {scene} you carry {inventory}."}},
		{Type: "say", Params: map[string]any{"text": "The code is {var.code}{var.missing}."}},
	})

	want := []string{"In cellar you carry nothing.", "The code is 7391."}
	if len(output) != 2 || output[0] != want[0] || output[1] != want[1] {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestRegistry_UnknownAndCustom(t *testing.T) {
	r := NewRegistry()
	ctx, _, _ := testContext()

	_, _, unknown := r.Apply(ctx, []types.Effect{{Type: "explode"}})
	if len(unknown) != 1 || unknown[0] != "explode" {
		t.Errorf("unknown = %v", unknown)
	}

	r.Register("explode", func(ctx Context, _ map[string]any) ([]types.Event, []string) {
		return nil, []string{"Boom."}
	})
	_, output, unknown := r.Apply(ctx, []types.Effect{{Type: "explode"}})
	if len(unknown) != 0 || len(output) != 1 || output[0] != "Boom." {
		t.Errorf("output=%v unknown=%v", output, unknown)
	}
	if !r.Has("explode") || Known("explode") {
		t.Error("custom registration must not leak into the default registry")
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("a_first", func(Context, map[string]any) ([]types.Event, []string) { return nil, nil })

	names := r.Names()
	if len(names) == 0 || names[0] != "a_first" {
		t.Fatalf("names = %v, want a_first first", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
	for _, name := range KnownNames() {
		if !Known(name) {
			t.Errorf("KnownNames lists %q but Known is false", name)
		}
	}
	if len(KnownNames()) != len(names)-1 {
		t.Errorf("KnownNames = %v, want the built-ins only", KnownNames())
	}
}
