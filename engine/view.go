package engine

import (
	"github.com/PtiCalin/simple-game-engine/engine/scene"
	"github.com/PtiCalin/simple-game-engine/types"
)

// View is everything a presentation layer needs to draw one frame.
type View struct {
	Scene      string
	Title      string
	Background string
	Hotspots   []types.Hotspot
	Elapsed    float64 // seconds on the scene timeline
	Looping    bool

	// Dialogue box; Line is empty when no dialogue is running.
	Speaker        string
	Line           string
	Options        []string
	AwaitingChoice bool

	// Output is text produced by timeline events during this frame.
	Output []string
}

// View returns the current render data without advancing time.
func (e *Engine) View() View {
	sc := e.Defs.Scenes[e.State.CurrentScene]
	v := View{
		Scene:      e.State.CurrentScene,
		Title:      e.translate(sc.Title),
		Background: sc.Background,
		Hotspots:   scene.Visible(sc, e.State),
		Elapsed:    e.Timeline.Elapsed(),
		Looping:    e.Timeline.Looping(),
	}
	if v.Title == "" {
		v.Title = displayName(sc.ID)
	}

	if node := e.Dialogue.CurrentNode(); node != nil {
		v.Speaker = e.translate(node.Speaker)
		v.Line = e.translate(node.Text)
		v.AwaitingChoice = e.Dialogue.AwaitingChoice()
		for _, opt := range e.Dialogue.Options() {
			v.Options = append(v.Options, e.translate(opt.Text))
		}
	}
	return v
}
