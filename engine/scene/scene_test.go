package scene

import (
	"testing"

	"github.com/PtiCalin/simple-game-engine/engine/effects"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

type fakeHost struct {
	scenes    []string
	dialogues []string
}

func (h *fakeHost) OpenScene(id string)     { h.scenes = append(h.scenes, id) }
func (h *fakeHost) StartDialogue(id string) { h.dialogues = append(h.dialogues, id) }

func testScene() types.Scene {
	return types.Scene{
		ID: "hall",
		Hotspots: []types.Hotspot{
			{ID: "door", Area: []int{10, 10, 20, 40}, Action: "open_scene", Target: "garden"},
			{ID: "chest", Area: []int{50, 50, 10, 10}, Action: "toggle_flag", Target: "chest_open", Condition: "has_key"},
			{ID: "portrait", Area: []int{0, 0, 100, 100}, Action: "show_dialogue", Target: "portrait_talk"},
			{ID: "broken", Area: []int{1, 2}, Action: "open_scene", Target: "x"},
		},
	}
}

func TestContains(t *testing.T) {
	door := testScene().Hotspots[0]
	tests := []struct {
		x, y int
		want bool
	}{
		{10, 10, true},
		{29, 49, true},
		{30, 20, false},
		{20, 50, false},
		{9, 20, false},
	}
	for _, tt := range tests {
		if got := Contains(door, tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
	if Contains(testScene().Hotspots[3], 1, 2) {
		t.Error("malformed area must contain nothing")
	}
}

func TestHotspotAt(t *testing.T) {
	sc := testScene()
	s := state.NewState()

	h, ok := HotspotAt(sc, s, 15, 15)
	if !ok || h.ID != "door" {
		t.Errorf("expected door, got %q", h.ID)
	}

	// The chest is gated, so the portrait underneath answers the click.
	h, _ = HotspotAt(sc, s, 55, 55)
	if h.ID != "portrait" {
		t.Errorf("expected portrait, got %q", h.ID)
	}

	state.SetFlag(s, "has_key", true)
	h, _ = HotspotAt(sc, s, 55, 55)
	if h.ID != "chest" {
		t.Errorf("expected chest, got %q", h.ID)
	}

	if _, ok := HotspotAt(sc, s, 500, 500); ok {
		t.Error("expected no hotspot outside every area")
	}
}

func TestActiveWithExpression(t *testing.T) {
	s := state.NewState()
	h := types.Hotspot{Condition: "lamp_lit and not door_locked"}

	if Active(h, s) {
		t.Error("expected inactive without lamp")
	}
	state.SetFlag(s, "lamp_lit", true)
	if !Active(h, s) {
		t.Error("expected active with lamp lit")
	}
	if Active(types.Hotspot{Condition: "(("}, s) {
		t.Error("broken condition must disable the hotspot")
	}
}

func TestVisible(t *testing.T) {
	if n := len(Visible(testScene(), state.NewState())); n != 3 {
		t.Errorf("expected 3 visible hotspots, got %d", n)
	}
}

func TestTrigger(t *testing.T) {
	s := state.NewState()
	host := &fakeHost{}
	ctx := effects.Context{State: s, Host: host}

	tests := []struct {
		hotspot types.Hotspot
		check   func() bool
	}{
		{types.Hotspot{Action: "open_scene", Target: "garden"}, func() bool { return len(host.scenes) == 1 && host.scenes[0] == "garden" }},
		{types.Hotspot{Action: "show_dialogue", Target: "hello"}, func() bool { return len(host.dialogues) == 1 && host.dialogues[0] == "hello" }},
		{types.Hotspot{Action: "toggle_flag", Target: "lever"}, func() bool { return state.GetFlag(s, "lever") }},
		{types.Hotspot{Action: "teleport", Target: "north:tower"}, func() bool { return len(host.scenes) == 2 && host.scenes[1] == "tower" }},
	}
	for _, tt := range tests {
		res := Trigger(nil, ctx, tt.hotspot)
		if len(res.Effects) != 1 {
			t.Errorf("%s: expected one effect, got %v", tt.hotspot.Action, res.Effects)
		}
		if !tt.check() {
			t.Errorf("%s: action had no effect", tt.hotspot.Action)
		}
	}
}

func TestTrigger_NoTargetOrUnknownAction(t *testing.T) {
	host := &fakeHost{}
	ctx := effects.Context{State: state.NewState(), Host: host}

	r := effects.NewRegistry()
	Trigger(r, ctx, types.Hotspot{Action: "open_scene"})
	Trigger(r, ctx, types.Hotspot{Action: "dance", Target: "x"})

	if len(host.scenes) != 0 || len(host.dialogues) != 0 {
		t.Error("expected nothing to happen")
	}
	if IsAction("dance") || !IsAction("teleport") {
		t.Error("IsAction mismatch")
	}
}

func TestLoopDuration(t *testing.T) {
	tests := []struct {
		in     any
		millis int
		ok     bool
	}{
		{nil, 0, false},
		{false, 0, false},
		{true, DefaultLoopMillis, true},
		{3000, 3000, true},
		{2500.0, 2500, true},
		{0, 0, false},
		{"1200", 1200, true},
		{"often", DefaultLoopMillis, true},
	}
	for _, tt := range tests {
		millis, ok := LoopDuration(types.SceneFeatures{TimeLoop: tt.in})
		if millis != tt.millis || ok != tt.ok {
			t.Errorf("LoopDuration(%v) = %d, %v; want %d, %v", tt.in, millis, ok, tt.millis, tt.ok)
		}
	}
}

func TestStack(t *testing.T) {
	var st Stack
	if _, ok := st.Top(); ok {
		t.Error("empty stack has no top")
	}

	st.Push("hall")
	st.Push("drawer")
	st.Push("letter")
	if top, _ := st.Top(); top != "letter" || st.Len() != 3 {
		t.Errorf("top=%q len=%d", top, st.Len())
	}

	top, ok := st.Pop()
	if !ok || top != "drawer" {
		t.Errorf("pop -> %q, %v", top, ok)
	}

	st.Change("garden")
	if ids := st.IDs(); len(ids) != 1 || ids[0] != "garden" {
		t.Errorf("ids = %v", ids)
	}

	if _, ok := st.Pop(); ok {
		t.Error("popping the last scene leaves nothing on top")
	}
	if _, ok := st.Pop(); ok {
		t.Error("popping an empty stack stays empty")
	}
}
