// Package encoder decodes a rotary encoder with a push button and runs the
// mode state machine that decides what a turn means: layer scrolling while
// the button is held, otherwise CAD zoom or volume.
package encoder

import "github.com/sweeney/macropad/internal/scan"

// EventType is the kind of encoder event.
type EventType string

const (
	EventTurn   EventType = "TURN"
	EventButton EventType = "BUTTON"
)

// Event is a decoded encoder event. Clockwise is set for turns, Pressed for
// button events.
type Event struct {
	Type      EventType
	Clockwise bool
	Pressed   bool
}

func (e Event) String() string {
	if e.Type == EventTurn {
		if e.Clockwise {
			return "TURN cw"
		}
		return "TURN ccw"
	}
	if e.Pressed {
		return "BUTTON down"
	}
	return "BUTTON up"
}

// TrackerConfig configures quadrature decoding and button debounce.
type TrackerConfig struct {
	// StepsPerDetent is the number of quadrature transitions per emitted
	// turn. Most mechanical encoders produce 4 per detent.
	StepsPerDetent int
	// Inverted swaps clockwise and counter-clockwise.
	Inverted bool
	// DebounceSamples is the button's debounce window in ticks.
	DebounceSamples int
}

// transitions maps (previous<<2 | current) quadrature states, each state
// being A<<1 | B, to a direction: +1, -1, or 0 for no move or an illegal
// double-bit jump.
var transitions = [16]int8{
	0, -1, +1, 0,
	+1, 0, 0, -1,
	-1, 0, 0, +1,
	0, +1, -1, 0,
}

// Tracker turns sampled A/B/button levels into turn and button events.
type Tracker struct {
	cfg    TrackerConfig
	state  uint8
	primed bool
	accum  int
	button *scan.Scanner
}

// NewTracker creates an encoder tracker. StepsPerDetent below 1 defaults to 4.
func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.StepsPerDetent < 1 {
		cfg.StepsPerDetent = 4
	}
	return &Tracker{
		cfg:    cfg,
		button: scan.New(1, cfg.DebounceSamples),
	}
}

// Process takes one tick of encoder levels. A button event, if any, comes
// before the turn event in the returned slice.
func (t *Tracker) Process(a, b, button bool) []Event {
	var events []Event

	for _, e := range t.button.Process([]bool{button}) {
		events = append(events, Event{Type: EventButton, Pressed: e.Type == scan.Pressed})
	}

	cur := bit(a)<<1 | bit(b)
	if !t.primed {
		t.state = cur
		t.primed = true
		return events
	}

	dir := transitions[t.state<<2|cur]
	t.state = cur
	if dir == 0 {
		return events
	}

	// Direction reversal mid-detent restarts the count
	if (t.accum > 0 && dir < 0) || (t.accum < 0 && dir > 0) {
		t.accum = 0
	}
	t.accum += int(dir)

	if t.accum >= t.cfg.StepsPerDetent || t.accum <= -t.cfg.StepsPerDetent {
		cw := t.accum > 0
		if t.cfg.Inverted {
			cw = !cw
		}
		t.accum = 0
		events = append(events, Event{Type: EventTurn, Clockwise: cw})
	}
	return events
}

// ButtonHeld returns the debounced button level.
func (t *Tracker) ButtonHeld() bool {
	return t.button.Stable(0)
}

func bit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
