// Package scene provides hotspot hit-testing and actions, scene feature
// parsing and the scene stack.
package scene

import (
	"strconv"
	"strings"

	"github.com/PtiCalin/simple-game-engine/engine/effects"
	"github.com/PtiCalin/simple-game-engine/engine/rules"
	"github.com/PtiCalin/simple-game-engine/types"
)

// DefaultLoopMillis is the loop length of a scene whose time_loop is just true.
const DefaultLoopMillis = 5000

// Contains reports whether (x, y) falls inside the hotspot area. The area
// is x, y, width, height with the far edges excluded. Malformed areas
// contain nothing.
func Contains(h types.Hotspot, x, y int) bool {
	if len(h.Area) != 4 {
		return false
	}
	left, top, w, hgt := h.Area[0], h.Area[1], h.Area[2], h.Area[3]
	return x >= left && x < left+w && y >= top && y < top+hgt
}

// Active reports whether the hotspot's condition holds. Broken conditions
// disable the hotspot.
func Active(h types.Hotspot, s *types.State) bool {
	return rules.Check(h.Condition, s)
}

// Find returns the hotspot with the given id.
func Find(sc types.Scene, id string) (types.Hotspot, bool) {
	for _, h := range sc.Hotspots {
		if h.ID == id {
			return h, true
		}
	}
	return types.Hotspot{}, false
}

// HotspotAt returns the first active hotspot containing (x, y).
func HotspotAt(sc types.Scene, s *types.State, x, y int) (types.Hotspot, bool) {
	for _, h := range sc.Hotspots {
		if Active(h, s) && Contains(h, x, y) {
			return h, true
		}
	}
	return types.Hotspot{}, false
}

// Visible returns the hotspots whose condition currently holds.
func Visible(sc types.Scene, s *types.State) []types.Hotspot {
	var out []types.Hotspot
	for _, h := range sc.Hotspots {
		if Active(h, s) {
			out = append(out, h)
		}
	}
	return out
}

// Effect maps a hotspot to the effect it performs. Hotspots without a
// target, or with an action that is not a hotspot action, do nothing.
func Effect(h types.Hotspot) (types.Effect, bool) {
	if h.Target == "" {
		return types.Effect{}, false
	}
	switch h.Action {
	case "open_scene":
		return types.Effect{Type: "open_scene", Params: map[string]any{"scene": h.Target}}, true
	case "show_dialogue":
		return types.Effect{Type: "show_dialogue", Params: map[string]any{"dialogue": h.Target}}, true
	case "toggle_flag":
		return types.Effect{Type: "toggle_flag", Params: map[string]any{"flag": h.Target}}, true
	case "teleport":
		return types.Effect{Type: "teleport", Params: map[string]any{"target": h.Target}}, true
	default:
		return types.Effect{}, false
	}
}

// IsAction reports whether name is a hotspot action.
func IsAction(name string) bool {
	_, ok := Effect(types.Hotspot{Action: name, Target: "x"})
	return ok
}

// Trigger performs the hotspot's action through r, or through the
// built-in effects when r is nil.
func Trigger(r *effects.Registry, ctx effects.Context, h types.Hotspot) types.Result {
	eff, ok := Effect(h)
	if !ok {
		return types.Result{}
	}
	var events []types.Event
	var output []string
	if r != nil {
		events, output, _ = r.Apply(ctx, []types.Effect{eff})
	} else {
		events, output = effects.Apply(ctx, []types.Effect{eff})
	}
	return types.Result{Effects: []types.Effect{eff}, Events: events, Output: output}
}

// LoopDuration reads the time_loop feature. true means DefaultLoopMillis,
// a number is a length in milliseconds, and anything unparseable falls back
// to the default. false, zero and absent disable looping.
func LoopDuration(f types.SceneFeatures) (millis int, ok bool) {
	switch v := f.TimeLoop.(type) {
	case nil:
		return 0, false
	case bool:
		if !v {
			return 0, false
		}
		return DefaultLoopMillis, true
	case int:
		return v, v > 0
	case int64:
		return int(v), v > 0
	case float64:
		return int(v), v > 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return DefaultLoopMillis, true
		}
		return int(n), n > 0
	default:
		return DefaultLoopMillis, true
	}
}
