// Package pad runs the macropad tick pipeline: debounced key scanning, the
// encoder, keymap resolution, action dispatch and macro playback, in a
// fixed order once per tick.
//
// This package has NO hardware dependencies. Input arrives as gpio.Sample
// values and time is always injectable via time.Time parameters.
package pad

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/macropad/internal/dispatch"
	"github.com/sweeney/macropad/internal/display"
	"github.com/sweeney/macropad/internal/encoder"
	"github.com/sweeney/macropad/internal/gpio"
	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keymap"
	"github.com/sweeney/macropad/internal/macro"
	"github.com/sweeney/macropad/internal/ring"
	"github.com/sweeney/macropad/internal/scan"
)

// DefaultQueueSize is the edge queue capacity used when Config leaves it 0.
// The queue overwrites its oldest edge when full.
const DefaultQueueSize = 16

// Config is everything the pipeline needs, already parsed.
type Config struct {
	Keys            int
	Layers          []keymap.Layer
	Macros          map[string]macro.Macro
	Toggles         []dispatch.Toggle
	DebounceSamples int
	Tracker         encoder.TrackerConfig
	Machine         encoder.MachineConfig
	Player          macro.Options
	QueueSize       int

	Output  hid.Output
	Display display.Display
	Logger  *slog.Logger

	// StartTime is used for calculating uptime in heartbeats.
	StartTime time.Time
}

// Pad owns every stateful component of the pipeline. It is not safe for
// concurrent use; the run loop is its only caller.
type Pad struct {
	scanner    *scan.Scanner
	queue      *ring.Buffer[scan.Edge]
	tracker    *encoder.Tracker
	machine    *encoder.Machine
	stack      *keymap.Stack
	player     *macro.Player
	dispatcher *dispatch.Dispatcher
	display    display.Display
	logger     *slog.Logger

	startTime     time.Time
	lastHeartbeat time.Time
	counts        Counts
}

// New builds the pipeline and shows the active layer's label. Every
// MACRO(id) in the keymap must name a defined macro or toggle.
func New(cfg Config) (*Pad, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Output == nil {
		return nil, errors.New("pad: no HID output")
	}

	stack, err := keymap.NewStack(cfg.Keys, cfg.Layers)
	if err != nil {
		return nil, err
	}

	player := macro.NewPlayer(cfg.Output, cfg.Player)
	d := dispatch.New(dispatch.Config{
		Stack:   stack,
		Player:  player,
		Output:  cfg.Output,
		Macros:  cfg.Macros,
		Toggles: cfg.Toggles,
		Logger:  logger,
	})
	for _, id := range stack.Macros() {
		if !d.Known(id) {
			return nil, &keymap.ConfigError{
				Field:  fmt.Sprintf("MACRO(%s)", id),
				Reason: dispatch.ErrUnknownMacro.Error(),
			}
		}
	}
	if cfg.Machine.CADLayer >= stack.Len() {
		return nil, &keymap.ConfigError{
			Field:  "encoder.cad_layer",
			Reason: fmt.Sprintf("layer %d does not exist", cfg.Machine.CADLayer),
		}
	}

	queueSize := cfg.QueueSize
	if queueSize == 0 {
		queueSize = DefaultQueueSize
	}

	p := &Pad{
		scanner:       scan.New(cfg.Keys, cfg.DebounceSamples),
		queue:         ring.New[scan.Edge](queueSize, "edge queue", logger),
		tracker:       encoder.NewTracker(cfg.Tracker),
		machine:       encoder.NewMachine(cfg.Machine, stack, cfg.Output, cfg.Display, logger),
		stack:         stack,
		player:        player,
		dispatcher:    d,
		display:       cfg.Display,
		logger:        logger,
		startTime:     cfg.StartTime,
		lastHeartbeat: cfg.StartTime,
	}
	p.show()
	return p, nil
}

// Process runs one tick: scan keys, queue edges, decode the encoder and run
// its state machine, dispatch queued presses, then advance the macro.
func (p *Pad) Process(in gpio.Sample, now time.Time) []Event {
	var events []Event

	for _, e := range p.scanner.Process(in.Keys) {
		p.queue.Push(e)
	}

	layer := p.stack.ActiveIndex()
	for _, ev := range p.tracker.Process(in.EncA, in.EncB, in.EncButton) {
		mode := p.machine.Mode()
		p.machine.Handle(ev)
		events = p.encoderEvents(events, ev, mode, now)
	}
	if p.stack.ActiveIndex() != layer {
		// The machine already showed the committed label
		events = append(events, p.layerChanged(now))
	}

	for {
		e, ok := p.queue.Pop()
		if !ok {
			break
		}
		events = p.handleEdge(events, e, now)
	}

	running, _, _ := p.player.Running()
	finished, err := p.player.Tick(now)
	if err != nil {
		p.logger.Warn("macro output error", "error", err)
	}
	if finished {
		events = append(events, Event{Timestamp: now, Type: EventMacroFinished, Key: -1, Macro: running})
	}

	p.counts.QueueDropped = p.queue.Dropped()
	return events
}

func (p *Pad) encoderEvents(events []Event, ev encoder.Event, before encoder.Mode, now time.Time) []Event {
	switch ev.Type {
	case encoder.EventTurn:
		p.counts.Turns++
		e := Event{Timestamp: now, Type: EventEncoderTurn, Key: -1, Clockwise: ev.Clockwise, Layer: p.stack.ActiveIndex()}
		if before == encoder.ModeLayerScroll {
			e.Layer = p.machine.Selected()
		}
		e.Label = p.stack.Label(e.Layer)
		events = append(events, e)
	case encoder.EventButton:
		after := p.machine.Mode()
		switch {
		case before == encoder.ModeIdle && after == encoder.ModeLayerScroll:
			events = append(events, Event{Timestamp: now, Type: EventScrollStart, Key: -1, Layer: p.machine.Selected(), Label: p.stack.Label(p.machine.Selected())})
		case before == encoder.ModeLayerScroll && after == encoder.ModeIdle:
			events = append(events, Event{Timestamp: now, Type: EventScrollEnd, Key: -1, Layer: p.machine.Selected(), Label: p.stack.Label(p.machine.Selected())})
		}
	}
	return events
}

// handleEdge resolves and dispatches one debounced edge. Only presses are
// dispatched; a release is reported but does nothing.
func (p *Pad) handleEdge(events []Event, e scan.Edge, now time.Time) []Event {
	action := p.stack.Resolve(e.Position)
	if e.Type == scan.Released {
		p.counts.KeyUp++
		return append(events, Event{Timestamp: now, Type: EventKeyUp, Key: e.Position, Action: action.String(), Layer: p.stack.ActiveIndex()})
	}

	p.counts.KeyDown++
	events = append(events, Event{Timestamp: now, Type: EventKeyDown, Key: e.Position, Action: action.String(), Layer: p.stack.ActiveIndex()})

	layer := p.stack.ActiveIndex()
	err := p.dispatcher.Dispatch(action, e.Position, now)
	switch {
	case err == nil:
	case errors.Is(err, macro.ErrBusy):
		p.counts.MacroBusy++
		running, _, _ := p.player.Running()
		return append(events, Event{Timestamp: now, Type: EventMacroBusy, Key: e.Position, Action: action.String(), Macro: running})
	case errors.Is(err, keymap.ErrLayerOutOfRange):
		p.counts.DispatchError++
		p.logger.Warn("layer select rejected", "key", e.Position, "error", err)
		return events
	default:
		p.counts.DispatchError++
		p.logger.Warn("dispatch failed", "key", e.Position, "action", action.String(), "error", err)
		return events
	}

	if ref, ok := action.(keymap.MacroRef); ok {
		p.counts.MacroStarts++
		p.logger.Info("macro started", "macro", ref.ID, "key", e.Position)
		events = append(events, Event{Timestamp: now, Type: EventMacroStarted, Key: e.Position, Macro: ref.ID})
	}
	if p.stack.ActiveIndex() != layer {
		p.show()
		events = append(events, p.layerChanged(now))
	}
	return events
}

func (p *Pad) layerChanged(now time.Time) Event {
	p.counts.LayerChanges++
	active := p.stack.ActiveIndex()
	p.logger.Info("layer changed", "layer", active, "label", p.stack.Label(active))
	return Event{Timestamp: now, Type: EventLayerChanged, Key: -1, Layer: active, Label: p.stack.Label(active)}
}

// show puts the active layer's label on the display.
func (p *Pad) show() {
	if p.display == nil {
		return
	}
	if err := p.display.ShowText(p.stack.Label(p.stack.ActiveIndex())); err != nil {
		p.logger.Warn("display update failed", "error", err)
	}
}

// IsBaselined returns whether every key has an established level.
func (p *Pad) IsBaselined() bool {
	return p.scanner.IsBaselined()
}

// State returns a snapshot of the pad.
func (p *Pad) State() State {
	active := p.stack.ActiveIndex()
	name, _, _ := p.player.Running()
	step, total := p.player.Progress()
	return State{
		Layer:      active,
		Label:      p.stack.Label(active),
		Labels:     p.stack.Labels(),
		Mode:       p.machine.Mode(),
		Selected:   p.machine.Selected(),
		Macro:      name,
		MacroStep:  step,
		MacroSteps: total,
		Toggles:    p.dispatcher.Toggles(),
		Baselined:  p.scanner.IsBaselined(),
		Counts:     p.counts,
	}
}

// MacroIDs returns every macro and toggle the pad can play.
func (p *Pad) MacroIDs() []string {
	return p.dispatcher.MacroIDs()
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil until the first debounce window
// has been sampled, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (p *Pad) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !p.scanner.Settled() {
		return nil
	}

	if now.Sub(p.lastHeartbeat) < interval {
		return nil
	}

	p.lastHeartbeat = now
	active := p.stack.ActiveIndex()
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(p.startTime),
		Layer:     active,
		Label:     p.stack.Label(active),
		Counts:    p.counts,
	}
}
