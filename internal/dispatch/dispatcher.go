// Package dispatch maps resolved keymap actions to HID output, layer
// changes and macro playback.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keycode"
	"github.com/sweeney/macropad/internal/keymap"
	"github.com/sweeney/macropad/internal/macro"
)

// ErrUnknownMacro is returned for a MacroRef with no definition.
var ErrUnknownMacro = errors.New("unknown macro")

// Layers is the part of the layer stack the dispatcher writes.
type Layers interface {
	SetActive(index int) error
}

// Player is the part of the macro player the dispatcher starts.
type Player interface {
	Start(m macro.Macro, source int, now time.Time) error
}

// Config wires a Dispatcher.
type Config struct {
	Stack   Layers
	Player  Player
	Output  hid.Output
	Macros  map[string]macro.Macro
	Toggles []Toggle
	Logger  *slog.Logger
}

// Dispatcher executes actions. It is the only writer of toggle state.
type Dispatcher struct {
	layers  Layers
	player  Player
	out     hid.Output
	macros  map[string]macro.Macro
	toggles map[string]Toggle
	state   map[string]bool
	logger  *slog.Logger
}

// New creates a Dispatcher. Toggle IDs shadow static macros of the same name.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		layers:  cfg.Stack,
		player:  cfg.Player,
		out:     cfg.Output,
		macros:  cfg.Macros,
		toggles: make(map[string]Toggle, len(cfg.Toggles)),
		state:   make(map[string]bool, len(cfg.Toggles)),
		logger:  logger,
	}
	for _, t := range cfg.Toggles {
		d.toggles[t.ID] = t
		d.state[t.ID] = t.Initial
	}
	return d
}

// Dispatch executes a for the key at position source. Keys are tapped
// immediately. A macro that cannot start because another is playing returns
// an error wrapping macro.ErrBusy; the caller logs it and carries on.
func (d *Dispatcher) Dispatch(a keymap.Action, source int, now time.Time) error {
	switch a := a.(type) {
	case keymap.SimpleKey:
		return hid.Tap(d.out, keycode.Of(a.Key))
	case keymap.ModifiedKey:
		return hid.Tap(d.out, a.Combo())
	case keymap.LayerSelect:
		if err := d.layers.SetActive(a.Index); err != nil {
			return fmt.Errorf("layer select from key %d: %w", source, err)
		}
		return nil
	case keymap.MacroRef:
		return d.startMacro(a.ID, source, now)
	case keymap.NoOp, nil:
		return nil
	default:
		return fmt.Errorf("dispatch: unhandled action %T", a)
	}
}

func (d *Dispatcher) startMacro(id string, source int, now time.Time) error {
	if t, ok := d.toggles[id]; ok {
		state := d.state[id]
		if err := d.player.Start(t.build(state), source, now); err != nil {
			d.logRejected(id, source, err)
			return fmt.Errorf("macro %s: %w", id, err)
		}
		d.state[id] = !state
		d.logger.Debug("toggle flipped", "toggle", id, "state", !state)
		return nil
	}

	m, ok := d.macros[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMacro, id)
	}
	if err := d.player.Start(m, source, now); err != nil {
		d.logRejected(id, source, err)
		return fmt.Errorf("macro %s: %w", id, err)
	}
	return nil
}

func (d *Dispatcher) logRejected(id string, source int, err error) {
	if errors.Is(err, macro.ErrBusy) {
		d.logger.Info("macro rejected, player busy", "macro", id, "key", source)
		return
	}
	d.logger.Warn("macro start failed", "macro", id, "key", source, "error", err)
}

// State returns the current value of a toggle.
func (d *Dispatcher) State(id string) (bool, bool) {
	v, ok := d.state[id]
	return v, ok
}

// Toggles returns a copy of all toggle states.
func (d *Dispatcher) Toggles() map[string]bool {
	out := make(map[string]bool, len(d.state))
	for k, v := range d.state {
		out[k] = v
	}
	return out
}

// Known reports whether id names a macro or toggle.
func (d *Dispatcher) Known(id string) bool {
	if _, ok := d.toggles[id]; ok {
		return true
	}
	_, ok := d.macros[id]
	return ok
}

// MacroIDs returns all macro and toggle IDs, sorted.
func (d *Dispatcher) MacroIDs() []string {
	ids := make([]string, 0, len(d.macros)+len(d.toggles))
	for id := range d.macros {
		ids = append(ids, id)
	}
	for id := range d.toggles {
		if _, dup := d.macros[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
