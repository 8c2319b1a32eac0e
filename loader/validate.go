package loader

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/PtiCalin/simple-game-engine/engine/effects"
	"github.com/PtiCalin/simple-game-engine/engine/rules"
	"github.com/PtiCalin/simple-game-engine/engine/scene"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validTriggers = map[string]bool{
	"":                     true, // defaults to delay
	types.TriggerDelay:     true,
	types.TriggerCondition: true,
	types.TriggerScene:     true,
}

// validate checks the compiled defs for consistency. Errors make the content
// unplayable; warnings name references the engine tolerates at runtime.
func validate(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.Title is required")
	}
	if defs.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.Start is required")
	} else if _, ok := defs.Scenes[defs.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start scene %q not found in defined scenes", defs.Game.Start))
	}

	for _, id := range sortedKeys(defs.Scenes) {
		sc := defs.Scenes[id]
		validateHotspots(sc, defs, ve)
		if w := loopWarning(sc.Features); w != "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("scene %q: %s", id, w))
		}
		validateEvents(fmt.Sprintf("scene %q", id), sc.Events, defs, ve)
	}
	validateEvents("global", defs.Events, defs, ve)

	for _, id := range sortedKeys(defs.Dialogues) {
		validateDialogue(defs.Dialogues[id], defs, ve)
	}
	return ve
}

func validateHotspots(sc types.Scene, defs *state.Defs, ve *ValidationError) {
	seen := map[string]bool{}
	for _, h := range sc.Hotspots {
		where := fmt.Sprintf("scene %q hotspot %q", sc.ID, h.ID)
		if h.ID != "" && seen[h.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("scene %q: duplicate hotspot ID %q", sc.ID, h.ID))
		}
		seen[h.ID] = true

		if !scene.IsAction(h.Action) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown action %q", where, h.Action))
		}
		if h.Target == "" {
			ve.Warnings = append(ve.Warnings, where+": no target")
		}
		if len(h.Area) != 4 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: area needs 4 values, has %d", where, len(h.Area)))
		}
		validateCondition(where, h.Condition, ve)

		switch h.Action {
		case "open_scene":
			warnMissingScene(where, h.Target, defs, ve)
		case "teleport":
			target := h.Target
			if _, id, found := strings.Cut(target, ":"); found {
				target = id
			}
			warnMissingScene(where, target, defs, ve)
		case "show_dialogue":
			if _, ok := defs.Dialogues[h.Target]; !ok && h.Target != "" {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: dialogue %q is not defined", where, h.Target))
			}
		}
	}
}

func validateEvents(where string, events []types.TimelineEventDef, defs *state.Defs, ve *ValidationError) {
	for i, ev := range events {
		name := ev.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		at := fmt.Sprintf("%s event %s", where, name)

		if !validTriggers[ev.Trigger] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown trigger %q", at, ev.Trigger))
		}
		if !effects.Known(ev.Action) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown action %q (known: %s)",
				at, ev.Action, strings.Join(effects.KnownNames(), ", ")))
		}
		if ev.Trigger == types.TriggerCondition && ev.Condition == "" {
			ve.Warnings = append(ve.Warnings, at+": condition trigger without a condition")
		}

		switch ev.Action {
		case "goto_scene", "open_scene":
			if id, _ := ev.Params["scene"].(string); id != "" {
				warnMissingScene(at, id, defs, ve)
			}
		case "show_dialogue":
			id, _ := ev.Params["dialogue"].(string)
			if id == "" {
				id, _ = ev.Params["text"].(string)
			}
			if _, ok := defs.Dialogues[id]; !ok && id != "" {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: dialogue %q is not defined", at, id))
			}
		}
	}
}

// validateDialogue warns about next targets that resolve to neither a line
// of the same dialogue nor another dialogue. Those end the dialogue at
// runtime.
func validateDialogue(d types.Dialogue, defs *state.Defs, ve *ValidationError) {
	if len(d.Lines) == 0 {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("dialogue %q has no lines", d.ID))
		return
	}

	var lineIDs []string
	for _, l := range d.Lines {
		if l.ID != "" {
			lineIDs = append(lineIDs, l.ID)
		}
	}
	check := func(next string) {
		if next == "" || slices.Contains(lineIDs, next) {
			return
		}
		if _, ok := defs.Dialogues[next]; ok {
			return
		}
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"dialogue %q: next %q matches no line or dialogue", d.ID, next))
	}

	for _, l := range d.Lines {
		check(l.Next)
		for _, opt := range l.Options {
			check(opt.Next)
		}
	}
}

// validateCondition reports hotspot conditions that cannot be evaluated.
func validateCondition(where, expr string, ve *ValidationError) {
	if expr == "" {
		return
	}
	if _, err := rules.Eval(expr, state.NewState()); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: invalid condition %q: %v", where, expr, err))
	}
}

func warnMissingScene(where, id string, defs *state.Defs, ve *ValidationError) {
	if id == "" {
		return
	}
	if _, ok := defs.Scenes[id]; !ok {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: scene %q is not defined", where, id))
	}
}

// loopWarning describes a time_loop value that falls back to the default.
func loopWarning(f types.SceneFeatures) string {
	switch v := f.TimeLoop.(type) {
	case nil, bool, int, int64, float64:
		return ""
	case string:
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(s, 64); err != nil && s != "" {
			return fmt.Sprintf("time_loop %q is not a number of milliseconds, using %d", v, scene.DefaultLoopMillis)
		}
		return ""
	default:
		return fmt.Sprintf("time_loop has unsupported type %T, using %d", v, scene.DefaultLoopMillis)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
