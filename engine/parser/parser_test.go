package parser

import (
	"testing"

	"github.com/PtiCalin/simple-game-engine/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Intent
	}{
		// Empty / whitespace
		{
			name:  "empty string",
			input: "",
			want:  types.Intent{},
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  types.Intent{},
		},

		// Dialogue
		{
			name:  "bare number chooses",
			input: "2",
			want:  types.Intent{Verb: "choose", Object: "2"},
		},
		{
			name:  "choose with number",
			input: "choose 1",
			want:  types.Intent{Verb: "choose", Object: "1"},
		},
		{
			name:  "next → advance",
			input: "next",
			want:  types.Intent{Verb: "advance"},
		},
		{
			name:  "talk to the gatekeeper",
			input: "talk to the gatekeeper_intro",
			want:  types.Intent{Verb: "talk", Object: "gatekeeper_intro"},
		},

		// Clicking
		{
			name:  "click hotspot",
			input: "click door",
			want:  types.Intent{Verb: "click", Object: "door"},
		},
		{
			name:  "click point",
			input: "click 120 80",
			want:  types.Intent{Verb: "click", Object: "120", Target: "80"},
		},
		{
			name:  "use → click",
			input: "use the lever",
			want:  types.Intent{Verb: "click", Object: "lever"},
		},
		{
			name:  "multi-word hotspot name",
			input: "click old door",
			want:  types.Intent{Verb: "click", Object: "old door"},
		},

		// Scenes
		{
			name:  "go scene keeps case",
			input: "GO Garden",
			want:  types.Intent{Verb: "go", Object: "Garden"},
		},
		{
			name:  "go back",
			input: "go back",
			want:  types.Intent{Verb: "back"},
		},
		{
			name:  "leave → back",
			input: "leave",
			want:  types.Intent{Verb: "back"},
		},
		{
			name:  "zoom into drawer",
			input: "zoom into drawer",
			want:  types.Intent{Verb: "click", Object: "drawer"},
		},

		// Misc
		{
			name:  "l → look",
			input: "l",
			want:  types.Intent{Verb: "look"},
		},
		{
			name:  "i → inventory",
			input: "i",
			want:  types.Intent{Verb: "inventory"},
		},
		{
			name:  "wait ms",
			input: "wait 1500",
			want:  types.Intent{Verb: "wait", Object: "1500"},
		},
		{
			name:  "unknown verb passes through",
			input: "dance wildly",
			want:  types.Intent{Verb: "dance", Object: "wildly"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
