// Package effects implements centralized state mutation. Every effect type is
// one atomic operation, dispatched by its type string through a Registry.
package effects

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// Host is the scene-transition capability. Effects that need it are
// skipped when no host is wired.
type Host interface {
	OpenScene(id string)
	StartDialogue(id string)
}

// Persister saves the game state on demand.
type Persister interface {
	Persist(s *types.State)
}

// Context carries what a handler may touch. Host and Persister are optional.
type Context struct {
	State     *types.State
	Host      Host
	Persister Persister
}

// Handler applies one effect. It returns emitted events and output text.
type Handler func(ctx Context, params map[string]any) ([]types.Event, []string)

// Registry maps effect type names to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a registry preloaded with the built-in effects.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[string]Handler{}}
	r.Register("say", say)
	r.Register("set_flag", setFlag)
	r.Register("clear_flag", clearFlag)
	r.Register("toggle_flag", toggleFlag)
	r.Register("set_var", setVar)
	r.Register("add_item", addItem)
	r.Register("remove_item", removeItem)
	r.Register("add_clue", addClue)
	r.Register("show_dialogue", showDialogue)
	r.Register("goto_scene", gotoScene)
	r.Register("open_scene", gotoScene)
	r.Register("teleport", teleport)
	return r
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Has reports whether name is a known effect type.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns every registered effect type, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply applies a list of effects in order. Unknown effect types are
// skipped and reported through the returned slice.
func (r *Registry) Apply(ctx Context, effs []types.Effect) (events []types.Event, output []string, unknown []string) {
	for _, eff := range effs {
		h, ok := r.handlers[eff.Type]
		if !ok {
			unknown = append(unknown, eff.Type)
			continue
		}
		evts, out := h(ctx, eff.Params)
		events = append(events, evts...)
		output = append(output, out...)
	}
	return events, output, unknown
}

var defaultRegistry = NewRegistry()

// Apply applies effects with the built-in registry.
func Apply(ctx Context, effs []types.Effect) ([]types.Event, []string) {
	events, output, _ := defaultRegistry.Apply(ctx, effs)
	return events, output
}

// Known reports whether name is a built-in effect type.
func Known(name string) bool {
	return defaultRegistry.Has(name)
}

// KnownNames lists the built-in effect types, sorted.
func KnownNames() []string {
	return defaultRegistry.Names()
}

func say(ctx Context, params map[string]any) ([]types.Event, []string) {
	text, _ := params["text"].(string)
	return nil, []string{interpolate(text, ctx.State)}
}

func setFlag(ctx Context, params map[string]any) ([]types.Event, []string) {
	flag, ok := params["flag"].(string)
	if !ok || flag == "" {
		return nil, nil
	}
	value := true
	if v, ok := params["value"].(bool); ok {
		value = v
	}
	state.SetFlag(ctx.State, flag, value)
	persist(ctx)
	return []types.Event{flagChanged(flag, value)}, nil
}

func clearFlag(ctx Context, params map[string]any) ([]types.Event, []string) {
	flag, ok := params["flag"].(string)
	if !ok || flag == "" {
		return nil, nil
	}
	state.SetFlag(ctx.State, flag, false)
	persist(ctx)
	return []types.Event{flagChanged(flag, false)}, nil
}

func toggleFlag(ctx Context, params map[string]any) ([]types.Event, []string) {
	flag, ok := params["flag"].(string)
	if !ok || flag == "" {
		return nil, nil
	}
	state.ToggleFlag(ctx.State, flag)
	persist(ctx)
	return []types.Event{flagChanged(flag, state.GetFlag(ctx.State, flag))}, nil
}

func setVar(ctx Context, params map[string]any) ([]types.Event, []string) {
	key, ok := params["key"].(string)
	if !ok || key == "" {
		return nil, nil
	}
	state.SetVar(ctx.State, key, params["value"])
	return []types.Event{{Type: "var_changed", Data: map[string]any{"key": key, "value": params["value"]}}}, nil
}

func addItem(ctx Context, params map[string]any) ([]types.Event, []string) {
	item, ok := params["item"].(string)
	if !ok || item == "" || state.HasItem(ctx.State, item) {
		return nil, nil
	}
	state.AddItem(ctx.State, item)
	return []types.Event{{Type: "item_added", Data: map[string]any{"item": item}}}, nil
}

func removeItem(ctx Context, params map[string]any) ([]types.Event, []string) {
	item, ok := params["item"].(string)
	if !ok || !state.HasItem(ctx.State, item) {
		return nil, nil
	}
	state.RemoveItem(ctx.State, item)
	return []types.Event{{Type: "item_removed", Data: map[string]any{"item": item}}}, nil
}

func addClue(ctx Context, params map[string]any) ([]types.Event, []string) {
	clue, ok := params["clue"].(string)
	if !ok || clue == "" {
		return nil, nil
	}
	state.AddClue(ctx.State, clue)
	return []types.Event{{Type: "clue_found", Data: map[string]any{"clue": clue}}}, nil
}

// showDialogue accepts the dialogue id as "dialogue" or, for older content,
// as "text".
func showDialogue(ctx Context, params map[string]any) ([]types.Event, []string) {
	if ctx.Host == nil {
		return nil, nil
	}
	id, _ := params["dialogue"].(string)
	if id == "" {
		id, _ = params["text"].(string)
	}
	if id == "" {
		return nil, nil
	}
	ctx.Host.StartDialogue(id)
	return []types.Event{{Type: "dialogue_started", Data: map[string]any{"dialogue": id}}}, nil
}

func gotoScene(ctx Context, params map[string]any) ([]types.Event, []string) {
	if ctx.Host == nil {
		return nil, nil
	}
	target, _ := params["scene"].(string)
	if target == "" {
		return nil, nil
	}
	ctx.Host.OpenScene(target)
	return []types.Event{{Type: "scene_changed", Data: map[string]any{"scene": target}}}, nil
}

// teleport takes "scene" or "region:scene". Regions carry no behaviour of
// their own, so only the scene part is used.
func teleport(ctx Context, params map[string]any) ([]types.Event, []string) {
	target, _ := params["target"].(string)
	if _, scene, found := strings.Cut(target, ":"); found {
		target = scene
	}
	return gotoScene(ctx, map[string]any{"scene": target})
}

func flagChanged(flag string, value bool) types.Event {
	return types.Event{Type: "flag_changed", Data: map[string]any{"flag": flag, "value": value}}
}

func persist(ctx Context) {
	if ctx.Persister != nil {
		ctx.Persister.Persist(ctx.State)
	}
}

// interpolate replaces template variables in text.
func interpolate(text string, s *types.State) string {
	if !strings.Contains(text, "{") {
		return text
	}
	inv := "nothing"
	if len(s.Inventory) > 0 {
		inv = strings.Join(s.Inventory, ", ")
	}
	r := strings.NewReplacer(
		"{scene}", s.CurrentScene,
		"{inventory}", inv,
	)
	text = r.Replace(text)

	// {var.<key>}
	for {
		start := strings.Index(text, "{var.")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], "}")
		if end < 0 {
			break
		}
		key := text[start+5 : start+end]
		val := ""
		if v := state.GetVar(s, key, nil); v != nil {
			val = fmt.Sprintf("%v", v)
		}
		text = text[:start] + val + text[start+end+1:]
	}
	return text
}
