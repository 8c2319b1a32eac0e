// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"

	"github.com/PtiCalin/simple-game-engine/types"
)

var verbAliases = map[string]string{
	// Dialogue
	"next":     "advance",
	"continue": "advance",
	"c":        "advance",
	"pick":     "choose",
	"select":   "choose",
	"answer":   "choose",
	"reply":    "choose",

	// Talk
	"ask":   "talk",
	"speak": "talk",
	"chat":  "talk",

	// Pointing at things
	"use":   "click",
	"tap":   "click",
	"touch": "click",
	"press": "click",
	"open":  "click",

	// Scenes
	"walk":   "go",
	"travel": "go",
	"goto":   "go",
	"zoom":   "click",
	"enter":  "go",
	"leave":  "back",
	"return": "back",

	// Looking
	"l":    "look",
	"inv":  "inventory",
	"i":    "inventory",
	"z":    "wait",
	"tick": "wait",
}

var fillers = map[string]bool{
	"the": true, "a": true, "an": true,
	"to": true, "with": true, "at": true, "on": true, "into": true,
}

// Parse converts a raw command string into an Intent. Verbs are matched
// case-insensitively; objects keep their case because they name ids.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(input)

	// A bare number picks a dialogue option.
	if len(words) == 1 {
		if _, err := strconv.Atoi(words[0]); err == nil {
			return types.Intent{Verb: "choose", Object: words[0]}
		}
	}

	verb := strings.ToLower(words[0])
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}
	rest := stripFillers(words[1:])

	switch verb {
	case "click":
		// "click 120 80" is a point; anything else names a hotspot.
		if len(rest) == 2 && isInt(rest[0]) && isInt(rest[1]) {
			return types.Intent{Verb: verb, Object: rest[0], Target: rest[1]}
		}
	case "go":
		if len(rest) == 1 && strings.EqualFold(rest[0], "back") {
			return types.Intent{Verb: "back"}
		}
	}

	return types.Intent{Verb: verb, Object: strings.Join(rest, " ")}
}

// stripFillers removes articles and linking words ("talk to the owl").
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !fillers[strings.ToLower(w)] {
			result = append(result, w)
		}
	}
	return result
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
