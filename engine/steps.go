package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/PtiCalin/simple-game-engine/engine/effects"
	"github.com/PtiCalin/simple-game-engine/engine/resolve"
	"github.com/PtiCalin/simple-game-engine/engine/scene"
	"github.com/PtiCalin/simple-game-engine/types"
)

// stepDialogue handles input while a conversation is running. Nothing else
// happens until it ends.
func (e *Engine) stepDialogue(intent types.Intent) types.Result {
	var result types.Result

	switch intent.Verb {
	case "", "advance":
		switch {
		case e.Dialogue.AwaitingChoice() && len(e.Dialogue.Options()) == 0:
			// Every option is gated away; there is no way forward.
			e.Dialogue.End()
		case e.Dialogue.AwaitingChoice():
			result.Output = append(result.Output, e.choicePrompt())
			return result
		default:
			e.Dialogue.Advance()
		}

	case "choose":
		if !e.Dialogue.AwaitingChoice() {
			result.Output = append(result.Output, "There is nothing to choose right now.")
			return result
		}
		n, err := strconv.Atoi(intent.Object)
		if err != nil || n < 1 || n > len(e.Dialogue.Options()) {
			result.Output = append(result.Output, e.choicePrompt())
			return result
		}
		e.Dialogue.Choose(n - 1)

	default:
		result.Output = append(result.Output, "You are in a conversation.")
		result.Output = append(result.Output, e.describeDialogue()...)
		return result
	}

	e.settleDialogue()
	if !e.Dialogue.IsActive() {
		result.Output = append(result.Output, "The conversation ends.")
		return result
	}
	result.Output = append(result.Output, e.describeDialogue()...)
	return result
}

func (e *Engine) stepTalk(intent types.Intent) types.Result {
	if intent.Object == "" {
		return types.Result{Output: []string{"Talk to whom?"}}
	}
	id, err := resolve.Dialogue(e.Dialogue.IDs(), intent.Object)
	if err != nil {
		return types.Result{Output: []string{err.Error()}}
	}
	e.StartDialogue(id)
	return types.Result{Output: e.describeDialogue()}
}

func (e *Engine) stepClick(intent types.Intent) types.Result {
	if intent.Object == "" {
		return types.Result{Output: []string{"Click what?"}}
	}
	sc := e.Defs.Scenes[e.State.CurrentScene]

	var h types.Hotspot
	if intent.Target != "" {
		x, _ := strconv.Atoi(intent.Object)
		y, _ := strconv.Atoi(intent.Target)
		var ok bool
		if h, ok = scene.HotspotAt(sc, e.State, x, y); !ok {
			return types.Result{Output: []string{"Nothing happens."}}
		}
	} else {
		var err error
		if h, err = resolve.Hotspot(sc, e.State, intent.Object); err != nil {
			return types.Result{Output: []string{err.Error()}}
		}
	}

	before := e.State.CurrentScene
	result := scene.Trigger(e.Effects, e.effectsContext(), h)
	if len(result.Effects) == 0 {
		result.Output = append(result.Output, "Nothing happens.")
		return result
	}

	switch {
	case e.Dialogue.IsActive():
		e.settleDialogue()
		result.Output = append(result.Output, e.describeDialogue()...)
	case e.State.CurrentScene != before:
		result.Output = append(result.Output, e.describeScene()...)
	case len(result.Output) == 0:
		result.Output = append(result.Output, fmt.Sprintf("You use the %s.", displayName(h.ID)))
	}
	return result
}

func (e *Engine) stepGo(intent types.Intent) types.Result {
	if intent.Object == "" {
		return types.Result{Output: []string{"Go where?"}}
	}
	id, err := resolve.Scene(e.Defs, intent.Object)
	if err != nil {
		return types.Result{Output: []string{err.Error()}}
	}
	if id == e.State.CurrentScene {
		return types.Result{Output: []string{"You are already there."}}
	}
	if !slices.Contains(e.State.UnlockedScenes, id) {
		return types.Result{Output: []string{"You don't know the way there yet."}}
	}
	e.ChangeScene(id)
	return types.Result{Output: e.describeScene()}
}

// settleDialogue offers the options of the current line as soon as the
// conversation reaches it, so the player never has to advance onto a
// choice.
func (e *Engine) settleDialogue() {
	if !e.Dialogue.IsActive() || e.Dialogue.AwaitingChoice() {
		return
	}
	if node := e.Dialogue.CurrentNode(); node != nil && len(node.Options) > 0 {
		e.Dialogue.Advance()
	}
}

func (e *Engine) effectsContext() effects.Context {
	ctx := effects.Context{State: e.State, Host: e}
	if e.store != nil {
		ctx.Persister = e.store
	}
	return ctx
}

// describeScene produces the standard scene description output.
func (e *Engine) describeScene() []string {
	sc, ok := e.Defs.Scenes[e.State.CurrentScene]
	if !ok {
		return []string{"You are somewhere unknown."}
	}

	title := e.translate(sc.Title)
	if title == "" {
		title = displayName(sc.ID)
	}
	output := []string{"== " + title + " =="}
	if sc.Description != "" {
		output = append(output, e.translate(sc.Description))
	}

	if hs := scene.Visible(sc, e.State); len(hs) > 0 {
		names := make([]string, len(hs))
		for i, h := range hs {
			names[i] = displayName(h.ID)
		}
		output = append(output, "You notice: "+strings.Join(names, ", ")+".")
	}
	if e.Scenes.Len() > 1 {
		output = append(output, "You can go back.")
	}
	return output
}

// describeDialogue renders the current line and, at a choice point, the
// numbered options.
func (e *Engine) describeDialogue() []string {
	node := e.Dialogue.CurrentNode()
	if node == nil {
		return nil
	}

	var output []string
	if text := e.translate(node.Text); text != "" {
		if node.Speaker != "" {
			text = e.translate(node.Speaker) + ": " + text
		}
		output = append(output, text)
	}
	if e.Dialogue.AwaitingChoice() {
		for i, opt := range e.Dialogue.Options() {
			output = append(output, fmt.Sprintf("  %d. %s", i+1, e.translate(opt.Text)))
		}
	}
	return output
}

func (e *Engine) choicePrompt() string {
	return fmt.Sprintf("Choose an option (1-%d).", len(e.Dialogue.Options()))
}

// displayName turns an id like "old_door" into "old door".
func displayName(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}
