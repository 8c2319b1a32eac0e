package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sceneDisplayName derives a human-readable name from a scene ID.
// "great_hall" -> "Great Hall", "castle_gates" -> "Castle Gates".
func sceneDisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// setFlags returns the names of the flags that are on, sorted.
func setFlags(flags map[string]bool) []string {
	var out []string
	for k, v := range flags {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// renderStatusBar produces a full-width inverted status line showing the
// current scene, its hotspots, the inventory and the scene clock.
func (m Model) renderStatusBar() string {
	s := m.engine.State

	name := sceneDisplayName(s.CurrentScene)
	if sc, ok := m.defs.Scenes[s.CurrentScene]; ok && sc.Title != "" {
		name = m.view.Title
	}

	ids := make([]string, 0, len(m.view.Hotspots))
	for _, h := range m.view.Hotspots {
		ids = append(ids, h.ID)
	}
	left := fmt.Sprintf(" %s | Hotspots: %s", name, strings.Join(ids, ","))

	clock := fmt.Sprintf("%.1fs", m.view.Elapsed)
	if m.view.Looping {
		clock += " loop"
	}
	right := clock + " "

	// Show inventory items if they fit, otherwise just count.
	if inv := s.Inventory; len(inv) > 0 {
		candidate := fmt.Sprintf("Inv: %s | %s ", strings.Join(inv, ", "), clock)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s ", len(inv), clock)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
