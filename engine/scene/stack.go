package scene

import "slices"

// Stack tracks nested scenes such as a close-up opened over a room. It
// only records ids; opening the scenes is up to the caller.
type Stack struct {
	ids []string
}

// Change replaces the whole stack with id.
func (st *Stack) Change(id string) {
	st.ids = []string{id}
}

// Push puts id on top of the stack.
func (st *Stack) Push(id string) {
	st.ids = append(st.ids, id)
}

// Pop removes the top scene and returns the one now on top. ok is false
// when the stack is left empty.
func (st *Stack) Pop() (top string, ok bool) {
	if len(st.ids) > 0 {
		st.ids = st.ids[:len(st.ids)-1]
	}
	return st.Top()
}

// Top returns the scene on top of the stack.
func (st *Stack) Top() (string, bool) {
	if len(st.ids) == 0 {
		return "", false
	}
	return st.ids[len(st.ids)-1], true
}

// Len returns the stack depth.
func (st *Stack) Len() int {
	return len(st.ids)
}

// IDs returns the stack bottom first.
func (st *Stack) IDs() []string {
	return slices.Clone(st.ids)
}
