// Package timeline schedules delayed, conditional and scene-entry events
// against a clock derived from external frame ticks, with optional looping.
package timeline

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PtiCalin/simple-game-engine/engine/effects"
	"github.com/PtiCalin/simple-game-engine/engine/state"
	"github.com/PtiCalin/simple-game-engine/types"
)

// EventLoopReset is emitted by Update when the loop duration restarts the
// timeline.
const EventLoopReset = "timeline_loop_reset"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEffects replaces the action registry.
func WithEffects(r *effects.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithPersister saves the state after flag actions.
func WithPersister(p effects.Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// Engine owns the scheduled events and the elapsed-time clock.
type Engine struct {
	state     *types.State
	host      effects.Host
	persister effects.Persister
	registry  *effects.Registry
	logger    *zap.Logger

	events       []*types.TimelineEvent
	elapsed      float64 // seconds
	lastTick     int64
	ticked       bool
	loopEnabled  bool
	loopDuration float64 // seconds

	// generation changes whenever the schedule is replaced wholesale, which
	// an action can do mid-update by opening another scene.
	generation int
}

// New creates an empty timeline. host may be nil, in which case scene and
// dialogue actions are skipped.
func New(s *types.State, host effects.Host, opts ...Option) *Engine {
	e := &Engine{
		state:    s,
		host:     host,
		registry: effects.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Elapsed returns the timeline clock in seconds.
func (e *Engine) Elapsed() float64 {
	return e.elapsed
}

// Events returns the scheduled events.
func (e *Engine) Events() []*types.TimelineEvent {
	return slices.Clone(e.events)
}

// SetLoop enables or disables looping. duration is in seconds; zero loops
// events without ever resetting the clock.
func (e *Engine) SetLoop(enabled bool, duration float64) {
	e.loopEnabled = enabled
	e.loopDuration = max(duration, 0)
}

// Looping reports whether looping is enabled.
func (e *Engine) Looping() bool {
	return e.loopEnabled
}

// Clear drops every scheduled event. The clock keeps running.
func (e *Engine) Clear() {
	e.events = nil
	e.generation++
}

// AddEvent schedules ev relative to the current clock and scopes it to
// scene. An empty scene makes the event global.
func (e *Engine) AddEvent(ev *types.TimelineEvent, scene string) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Scene = scene
	ev.ScheduledAt = e.elapsed
	e.events = append(e.events, ev)
}

// LoadEvents schedules authored events as global events.
func (e *Engine) LoadEvents(defs []types.TimelineEventDef) {
	for _, def := range defs {
		e.AddEvent(convert(def), "")
	}
}

// AddEvents syncs the clock to tick, then schedules defs scoped to scene.
func (e *Engine) AddEvents(defs []types.TimelineEventDef, tick int64, scene string) {
	e.sync(tick)
	for _, def := range defs {
		e.AddEvent(convert(def), scene)
	}
}

// IsReady reports whether ev should fire at time now.
func (e *Engine) IsReady(ev *types.TimelineEvent, now float64) bool {
	if ev.Triggered {
		return false
	}
	switch ev.Trigger {
	case types.TriggerDelay:
		return now-ev.ScheduledAt >= ev.Time
	case types.TriggerCondition:
		if !state.CheckCondition(e.state, ev.Condition) {
			return false
		}
		return now-ev.ScheduledAt >= ev.Time
	case types.TriggerScene:
		return true
	default:
		return false
	}
}

// Update advances the clock to tick and fires every ready event in scope
// of currentScene.
func (e *Engine) Update(tick int64, currentScene string) types.Result {
	e.sync(tick)

	var result types.Result
	gen := e.generation
	pending := e.events
	kept := make([]*types.TimelineEvent, 0, len(pending))
	for _, ev := range pending {
		if ev.Scene != "" && ev.Scene != currentScene {
			kept = append(kept, ev)
			continue
		}
		if !e.IsReady(ev, e.elapsed) {
			kept = append(kept, ev)
			continue
		}

		e.fire(ev, &result)
		if e.generation != gen {
			// The action replaced the schedule; the new one stands as is.
			return result
		}
		if e.loopEnabled {
			ev.Triggered = true
			ev.ScheduledAt = e.elapsed
			kept = append(kept, ev)
		}
	}
	// Keep anything an action scheduled while we were iterating.
	e.events = append(kept, e.events[len(pending):]...)

	if e.loopEnabled && e.loopDuration > 0 && e.elapsed >= e.loopDuration {
		e.ResetLoop()
		result.Events = append(result.Events, types.Event{Type: EventLoopReset})
	}
	return result
}

// ResetLoop restarts the whole sequence from time zero.
func (e *Engine) ResetLoop() {
	e.elapsed = 0
	e.lastTick = 0
	e.ticked = false
	for _, ev := range e.events {
		ev.Triggered = false
		ev.ScheduledAt = 0
	}
	e.logger.Debug("timeline loop reset", zap.Int("events", len(e.events)))
}

func (e *Engine) sync(tick int64) {
	if !e.ticked {
		e.ticked = true
		e.lastTick = tick
		e.elapsed += float64(tick) / 1000
		return
	}
	delta := max(tick-e.lastTick, 0)
	e.elapsed += float64(delta) / 1000
	e.lastTick = tick
}

func (e *Engine) fire(ev *types.TimelineEvent, result *types.Result) {
	eff := types.Effect{Type: ev.Action, Params: ev.Params}
	ctx := effects.Context{State: e.state, Host: e.host, Persister: e.persister}

	events, output, unknown := e.registry.Apply(ctx, []types.Effect{eff})
	if len(unknown) > 0 {
		e.logger.Debug("ignoring unknown timeline action",
			zap.String("event", ev.ID), zap.String("action", ev.Action))
		return
	}
	e.logger.Debug("timeline event fired",
		zap.String("event", ev.ID), zap.String("action", ev.Action), zap.Float64("elapsed", e.elapsed))

	result.Effects = append(result.Effects, eff)
	result.Events = append(result.Events, events...)
	result.Output = append(result.Output, output...)
}

// convert builds a runtime event from an authored entry. The legacy "flag"
// shorthand is folded into params; explicit params win.
func convert(def types.TimelineEventDef) *types.TimelineEvent {
	trigger := def.Trigger
	if trigger == "" {
		trigger = types.TriggerDelay
	}
	raw := def.Time
	if raw == nil {
		raw = def.Delay
	}

	params := make(map[string]any, len(def.Params)+1)
	if def.Flag != "" {
		params["flag"] = def.Flag
	}
	for k, v := range def.Params {
		params[k] = v
	}

	return &types.TimelineEvent{
		ID:        def.ID,
		Trigger:   trigger,
		Time:      toSeconds(raw),
		Action:    def.Action,
		Params:    params,
		Condition: def.Condition,
	}
}

// toSeconds converts an authored time value. Anything unparseable is zero.
func toSeconds(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case nil:
		return 0
	default:
		f, err := strconv.ParseFloat(fmt.Sprint(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
}
