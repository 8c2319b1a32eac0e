// Package state manages the mutable game state: flags, variables, inventory,
// clues and scene progress. Unknown keys are never an error.
package state

import (
	"math"
	"slices"

	"github.com/PtiCalin/simple-game-engine/types"
)

// Defs holds the immutable game definitions loaded from content files.
type Defs struct {
	Game      types.GameDef
	Scenes    map[string]types.Scene
	Dialogues map[string]types.Dialogue
	Events    []types.TimelineEventDef // global timeline events
}

// NewState creates an empty game state.
func NewState() *types.State {
	return &types.State{
		Flags:          map[string]bool{},
		Variables:      map[string]any{},
		Inventory:      []string{},
		Clues:          []string{},
		UnlockedScenes: []string{},
	}
}

// SetFlag stores a flag value.
func SetFlag(s *types.State, name string, value bool) {
	if s.Flags == nil {
		s.Flags = map[string]bool{}
	}
	s.Flags[name] = value
}

// GetFlag returns the value of a flag. Unset flags return false.
func GetFlag(s *types.State, name string) bool {
	return s.Flags[name]
}

// ToggleFlag flips a flag. An unset flag becomes true.
func ToggleFlag(s *types.State, name string) {
	SetFlag(s, name, !GetFlag(s, name))
}

// SetVar stores an arbitrary scalar value. Integers are stored as int and
// float32 as float64, the forms a saved game reads back.
func SetVar(s *types.State, key string, value any) {
	if s.Variables == nil {
		s.Variables = map[string]any{}
	}
	s.Variables[key] = normalizeVar(value)
}

func normalizeVar(v any) any {
	switch n := v.(type) {
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		if uint64(n) <= math.MaxInt {
			return int(n)
		}
	case uint:
		if uint64(n) <= math.MaxInt {
			return int(n)
		}
	case uint64:
		if n <= math.MaxInt {
			return int(n)
		}
	case float32:
		return float64(n)
	}
	return v
}

// GetVar returns a variable, or def when it is not set.
func GetVar(s *types.State, key string, def any) any {
	if v, ok := s.Variables[key]; ok {
		return v
	}
	return def
}

// AddItem adds an item to the inventory. Adding a held item is a no-op.
func AddItem(s *types.State, itemID string) {
	if HasItem(s, itemID) {
		return
	}
	s.Inventory = append(s.Inventory, itemID)
}

// RemoveItem removes an item from the inventory if present.
func RemoveItem(s *types.State, itemID string) {
	if i := slices.Index(s.Inventory, itemID); i >= 0 {
		s.Inventory = slices.Delete(s.Inventory, i, i+1)
	}
}

// HasItem returns true if the item is in the inventory.
func HasItem(s *types.State, itemID string) bool {
	return slices.Contains(s.Inventory, itemID)
}

// ListInventory returns a copy of the inventory in display order.
func ListInventory(s *types.State) []string {
	return slices.Clone(s.Inventory)
}

// SetScene records the current scene.
func SetScene(s *types.State, sceneID string) {
	s.CurrentScene = sceneID
}

// Scene returns the current scene ID.
func Scene(s *types.State) string {
	return s.CurrentScene
}

// AddClue records a clue once, keeping discovery order.
func AddClue(s *types.State, clue string) {
	if !slices.Contains(s.Clues, clue) {
		s.Clues = append(s.Clues, clue)
	}
}

// UnlockScene records a scene as unlocked. Returns true if it was new.
func UnlockScene(s *types.State, sceneID string) bool {
	if sceneID == "" || slices.Contains(s.UnlockedScenes, sceneID) {
		return false
	}
	s.UnlockedScenes = append(s.UnlockedScenes, sceneID)
	return true
}

// Clear resets all tracked state to defaults.
func Clear(s *types.State) {
	*s = *NewState()
}

// CheckCondition evaluates the flag mini-language: an empty expression is
// true, "!flag" negates, anything else is a flag name. There is no and/or;
// see the rules package for free-form expressions.
func CheckCondition(s *types.State, expr string) bool {
	if expr == "" {
		return true
	}
	if expr[0] == '!' {
		return !GetFlag(s, expr[1:])
	}
	return GetFlag(s, expr)
}
