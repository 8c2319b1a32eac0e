// Package rules evaluates free-form trigger conditions such as
// "door_open and not alarm". Flags are exposed as boolean globals inside a
// throwaway, library-free Lua VM; unknown names read as false.
package rules

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// Eval evaluates expr against the game state. An empty expression is true.
// Plain "flag" and "!flag" forms use state.CheckCondition directly. On a
// syntax or runtime error the result is false and the error is returned.
func Eval(expr string, s *types.State) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}
	if isSimple(expr) {
		return state.CheckCondition(s, expr), nil
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	bindState(L, s)

	if err := L.DoString("return (" + translate(expr) + ")"); err != nil {
		return false, fmt.Errorf("evaluating %q: %w", expr, err)
	}
	v := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(v), nil
}

// Check is Eval without the error: a broken expression is simply false.
func Check(expr string, s *types.State) bool {
	ok, _ := Eval(expr, s)
	return ok
}

// bindState makes every global lookup resolve to a flag and registers the
// helper functions.
func bindState(L *lua.LState, s *types.State) {
	globals := L.G.Global

	globals.RawSetString("has", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(state.HasItem(s, L.CheckString(1))))
		return 1
	}))
	globals.RawSetString("var", L.NewFunction(func(L *lua.LState) int {
		L.Push(toLValue(state.GetVar(s, L.CheckString(1), nil)))
		return 1
	}))
	globals.RawSetString("scene", lua.LString(s.CurrentScene))

	meta := L.NewTable()
	meta.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		L.Push(lua.LBool(state.GetFlag(s, name)))
		return 1
	}))
	L.SetMetatable(globals, meta)
}

// translate maps the C/Python-flavoured operators authors tend to write
// onto Lua syntax. Quoted literals are copied untouched and True/False are
// only rewritten as whole words.
func translate(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(expr) && expr[j] != c {
				if expr[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(expr) {
				j++
			}
			if j > len(expr) {
				j = len(expr)
			}
			b.WriteString(expr[i:j])
			i = j
		case isIdentByte(c):
			j := i
			for j < len(expr) && isIdentByte(expr[j]) {
				j++
			}
			switch word := expr[i:j]; word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			default:
				b.WriteString(word)
			}
			i = j
		case strings.HasPrefix(expr[i:], "!="):
			b.WriteString(" ~= ")
			i += 2
		case strings.HasPrefix(expr[i:], "&&"):
			b.WriteString(" and ")
			i += 2
		case strings.HasPrefix(expr[i:], "||"):
			b.WriteString(" or ")
			i += 2
		case c == '!':
			b.WriteString(" not ")
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// isSimple reports whether expr is a bare flag name, optionally negated.
func isSimple(expr string) bool {
	name := strings.TrimPrefix(expr, "!")
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r == '.' || r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	switch name {
	case "true", "false", "True", "False":
		return false
	}
	return true
}

func toLValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	default:
		return lua.LString(fmt.Sprint(val))
	}
}
