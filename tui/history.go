// Package tui provides a Bubble Tea terminal UI for the adventure engine:
// a scrolling narrative, a dialogue box and a frame clock driving the
// scene timeline.
package tui

// History keeps the most recent commands for Up/Down recall. The line
// being typed when recall starts is kept as a draft and given back when
// the player steps past the newest entry.
type History struct {
	entries []string
	limit   int
	pos     int // len(entries) when not recalling
	draft   string
}

// NewHistory creates a history holding at most limit commands.
func NewHistory(limit int) *History {
	return &History{entries: make([]string, 0, limit), limit: limit}
}

// Push records a command. Repeating the newest command is a no-op.
func (h *History) Push(cmd string) {
	if n := len(h.entries); n == 0 || h.entries[n-1] != cmd {
		h.entries = append(h.entries, cmd)
		if over := len(h.entries) - h.limit; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.ResetCursor()
}

// Prev steps to the previous (older) command. draft is the current input;
// it is remembered when recall starts. It stays on the oldest entry and
// reports false only when there is no history.
func (h *History) Prev(draft string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if !h.recalling() {
		h.draft = draft
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos], true
}

// Next steps to the next (newer) command. Past the newest entry it returns
// the draft and false.
func (h *History) Next() (string, bool) {
	if !h.recalling() {
		return h.draft, false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return h.draft, false
	}
	return h.entries[h.pos], true
}

// ResetCursor ends recall and forgets the draft.
func (h *History) ResetCursor() {
	h.pos = len(h.entries)
	h.draft = ""
}

func (h *History) recalling() bool {
	return h.pos < len(h.entries)
}
