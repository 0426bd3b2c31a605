package encoder

import (
	"fmt"
	"log/slog"

	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keycode"
)

// Mode is the encoder session mode.
type Mode string

const (
	ModeIdle        Mode = "IDLE"
	ModeLayerScroll Mode = "LAYER_SCROLL"
)

// Layers is the part of the layer stack the machine reads and commits to.
type Layers interface {
	ActiveIndex() int
	SetActive(index int) error
	Len() int
	Label(index int) string
}

// Display shows one line of text.
type Display interface {
	ShowText(line string) error
}

// MachineConfig configures what an idle turn sends.
type MachineConfig struct {
	// CADLayer is the layer on which turns zoom instead of changing volume.
	// -1 disables zoom.
	CADLayer int

	ZoomIn     keycode.Combo
	ZoomOut    keycode.Combo
	VolumeUp   keycode.Combo
	VolumeDown keycode.Combo
}

// DefaultMachineConfig returns Ctrl+= / Ctrl+- zoom on layer 2 and consumer
// volume keys elsewhere.
func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		CADLayer:   2,
		ZoomIn:     keycode.Combo{Key: keycode.Equal, Mods: keycode.LCtrl},
		ZoomOut:    keycode.Combo{Key: keycode.Minus, Mods: keycode.LCtrl},
		VolumeUp:   keycode.Of(keycode.VolumeUp),
		VolumeDown: keycode.Of(keycode.VolumeDown),
	}
}

// Machine is the encoder mode state machine. It owns the encoder session:
// the mode, the layer being previewed while scrolling, and whether the
// button is held.
//
//	Idle --press--> LayerScroll   selected = active layer
//	LayerScroll --turn--> LayerScroll   selected ± 1 (wraps), display
//	LayerScroll --release--> Idle  commit selected, display
//	Idle --turn--> Idle  zoom on the CAD layer, volume elsewhere
//
// Every event is consumed. The display is updated once per scroll turn and
// once on release.
type Machine struct {
	cfg     MachineConfig
	layers  Layers
	out     hid.Output
	display Display
	logger  *slog.Logger

	mode     Mode
	selected int
	held     bool
}

// NewMachine creates a machine in Idle mode. A nil logger uses slog.Default().
func NewMachine(cfg MachineConfig, layers Layers, out hid.Output, display Display, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		cfg:      cfg,
		layers:   layers,
		out:      out,
		display:  display,
		logger:   logger,
		mode:     ModeIdle,
		selected: layers.ActiveIndex(),
	}
}

// Handle applies one encoder event. It always reports the event consumed.
func (m *Machine) Handle(ev Event) bool {
	switch ev.Type {
	case EventButton:
		m.handleButton(ev.Pressed)
	case EventTurn:
		m.handleTurn(ev.Clockwise)
	}
	return true
}

func (m *Machine) handleButton(pressed bool) {
	m.held = pressed
	switch {
	case pressed && m.mode == ModeIdle:
		m.mode = ModeLayerScroll
		m.selected = m.layers.ActiveIndex()
		m.logger.Debug("layer scroll start", "selected", m.selected)

	case !pressed && m.mode == ModeLayerScroll:
		m.mode = ModeIdle
		if err := m.layers.SetActive(m.selected); err != nil {
			m.logger.Warn("layer scroll commit rejected", "selected", m.selected, "error", err)
			return
		}
		m.logger.Info("layer selected", "layer", m.selected, "label", m.layers.Label(m.selected))
		m.show(m.selected)
	}
}

func (m *Machine) handleTurn(clockwise bool) {
	if m.mode == ModeLayerScroll {
		n := m.layers.Len()
		if clockwise {
			m.selected = wrap(m.selected+1, n)
		} else {
			m.selected = wrap(m.selected-1, n)
		}
		m.logger.Debug("layer scroll", "selected", m.selected)
		m.show(m.selected)
		return
	}

	var c keycode.Combo
	switch {
	case m.layers.ActiveIndex() == m.cfg.CADLayer && clockwise:
		c = m.cfg.ZoomIn
	case m.layers.ActiveIndex() == m.cfg.CADLayer:
		c = m.cfg.ZoomOut
	case clockwise:
		c = m.cfg.VolumeUp
	default:
		c = m.cfg.VolumeDown
	}
	if err := hid.Tap(m.out, c); err != nil {
		m.logger.Warn("encoder key failed", "combo", c.String(), "error", err)
	}
}

func (m *Machine) show(index int) {
	if m.display == nil {
		return
	}
	if err := m.display.ShowText(m.layers.Label(index)); err != nil {
		m.logger.Warn("display update failed", "error", err)
	}
}

// wrap reduces i into [0,n). A result outside that range means the
// arithmetic is broken and panics.
func wrap(i, n int) int {
	r := ((i % n) + n) % n
	assertLayer(r, n)
	return r
}

func assertLayer(selected, count int) {
	if selected < 0 || selected >= count {
		panic(fmt.Sprintf("encoder: invalid transition: selected layer %d outside [0,%d)", selected, count))
	}
}

// Mode returns the current session mode.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Selected returns the layer being previewed (or last committed).
func (m *Machine) Selected() int {
	return m.selected
}

// ButtonHeld reports whether the machine last saw the button pressed.
func (m *Machine) ButtonHeld() bool {
	return m.held
}
