package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleSceneDesc = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	styleNotice = lipgloss.NewStyle().
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleOption = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleDialogueBox = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindSceneDesc lineKind = iota
	kindTitle
	kindNotice
	kindDialogue
	kindOption
	kindSystem
	kindError
	kindTrace
)

const noticePrefix = "You notice: "

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "== ") && strings.HasSuffix(line, " =="):
		return kindTitle
	case strings.HasPrefix(line, noticePrefix):
		return kindNotice
	case isOptionLine(line):
		return kindOption
	case strings.HasPrefix(line, "There is no "),
		strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You don't"),
		strings.HasPrefix(line, "Nothing happens"):
		return kindError
	case isSpeech(line):
		return kindDialogue
	default:
		return kindSceneDesc
	}
}

// isOptionLine matches numbered dialogue options ("  2. Goodbye.").
func isOptionLine(line string) bool {
	rest := strings.TrimLeft(line, " ")
	if len(rest) == len(line) {
		return false
	}
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	return n > 0 && strings.HasPrefix(rest[n:], ". ")
}

// isSpeech matches "Speaker: text" lines, where the speaker is a short
// name without sentence punctuation.
func isSpeech(line string) bool {
	speaker, text, ok := strings.Cut(line, ": ")
	if !ok || speaker == "" || text == "" || len(speaker) > 24 {
		return false
	}
	return !strings.ContainsAny(speaker, ".!?,")
}

// styledNotice renders "You notice: a, b." with the hotspot names bold.
func styledNotice(line string) string {
	if !strings.HasPrefix(line, noticePrefix) {
		return styleSceneDesc.Render(line)
	}
	return styleSceneDesc.Render(noticePrefix) + styleNotice.Render(line[len(noticePrefix):])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
