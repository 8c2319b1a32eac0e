// Package resolve maps names typed by the player to hotspot, scene and
// dialogue ids.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PtiCalin/simple-game-engine/engine/scene"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// AmbiguityError indicates multiple ids matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no id matched a name.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("there is no %s called %q here", e.Kind, e.Name)
}

// Hotspot resolves name against the active hotspots of sc.
func Hotspot(sc types.Scene, s *types.State, name string) (types.Hotspot, error) {
	visible := scene.Visible(sc, s)
	ids := make([]string, len(visible))
	for i, h := range visible {
		ids[i] = h.ID
	}
	id, err := resolveName("hotspot", ids, name)
	if err != nil {
		return types.Hotspot{}, err
	}
	h, _ := scene.Find(sc, id)
	return h, nil
}

// Scene resolves name against the defined scene ids.
func Scene(defs *state.Defs, name string) (string, error) {
	ids := make([]string, 0, len(defs.Scenes))
	for id := range defs.Scenes {
		ids = append(ids, id)
	}
	return resolveName("scene", ids, name)
}

// Dialogue resolves name against the given dialogue ids.
func Dialogue(ids []string, name string) (string, error) {
	return resolveName("dialogue", ids, name)
}

// resolveName picks the id matching name: an exact id wins outright,
// otherwise every id matching loosely is a candidate.
func resolveName(kind string, ids []string, name string) (string, error) {
	for _, id := range ids {
		if id == name {
			return id, nil
		}
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))
	var matches []string
	for _, id := range ids {
		if matchesName(id, nameLower) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Kind: kind, Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks an id against a lowercased query. Supports
// case-insensitive match, space/underscore normalization ("old door"
// matches "old_door"), and word-based partial match ("door" matches
// "old_door").
func matchesName(id, nameLower string) bool {
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return true
	}
	if strings.ReplaceAll(nameLower, " ", "_") == idLower {
		return true
	}
	for _, word := range strings.FieldsFunc(idLower, func(r rune) bool { return r == '_' || r == '-' }) {
		if word == nameLower {
			return true
		}
	}
	return false
}
