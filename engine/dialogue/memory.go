package dialogue

import (
	"fmt"
	"strconv"
	"strings"
)

// memoryExpr is a parsed requires_memory gate:
//
//	[dialogueId.]key[ == value | != value]
//
// Without an operator the gate passes when the key exists.
type memoryExpr struct {
	scope string
	key   string
	op    string
	value string
}

func parseMemoryExpr(expr string) memoryExpr {
	var m memoryExpr
	left := expr
	for _, op := range []string{"==", "!="} {
		if l, r, found := strings.Cut(expr, op); found {
			left = l
			m.op = op
			m.value = unquote(strings.TrimSpace(r))
			break
		}
	}
	m.key = strings.TrimSpace(left)
	return m
}

// CheckMemory evaluates a memory expression. The key is looked up in the
// named dialogue's store when prefixed with a known dialogue id, otherwise in
// the running dialogue's store. An empty expression passes.
func (e *Engine) CheckMemory(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return true
	}
	m := parseMemoryExpr(expr)
	m.scope = e.activeID
	if prefix, rest, found := strings.Cut(m.key, "."); found && e.knownScope(prefix) {
		m.scope, m.key = prefix, rest
	}

	val, ok := e.memory[m.scope][m.key]
	switch m.op {
	case "==":
		return ok && val == m.value
	case "!=":
		return !ok || val != m.value
	default:
		return ok
	}
}

func (e *Engine) knownScope(id string) bool {
	if _, ok := e.memory[id]; ok {
		return true
	}
	return e.Has(id)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stringify is the storage form of set_memory values.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
