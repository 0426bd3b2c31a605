package hid

import (
	"strings"

	"github.com/sweeney/macropad/internal/keycode"
)

// EventType distinguishes press from release in a recorded event.
type EventType string

const (
	Down EventType = "DOWN"
	Up   EventType = "UP"
)

// Event is one recorded call on a Fake.
type Event struct {
	Type  EventType
	Combo keycode.Combo
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Combo.String()
}

// Fake records key events for test assertions.
type Fake struct {
	// Events contains every press and release in call order.
	Events []Event

	// PressError, if set, will be returned by Press (the event is still recorded).
	PressError error

	// ReleaseError, if set, will be returned by Release (the event is still recorded).
	ReleaseError error
}

// NewFake creates a Fake output.
func NewFake() *Fake {
	return &Fake{}
}

// Press records a key-down event.
func (f *Fake) Press(c keycode.Combo) error {
	f.Events = append(f.Events, Event{Type: Down, Combo: c})
	return f.PressError
}

// Release records a key-up event.
func (f *Fake) Release(c keycode.Combo) error {
	f.Events = append(f.Events, Event{Type: Up, Combo: c})
	return f.ReleaseError
}

// Taps returns the combos of every press immediately followed by the
// matching release, in order. Unpaired events are skipped.
func (f *Fake) Taps() []keycode.Combo {
	var out []keycode.Combo
	for i := 0; i+1 < len(f.Events); i++ {
		if f.Events[i].Type == Down && f.Events[i+1].Type == Up && f.Events[i].Combo == f.Events[i+1].Combo {
			out = append(out, f.Events[i].Combo)
			i++
		}
	}
	return out
}

// String renders the recorded events one per line.
func (f *Fake) String() string {
	lines := make([]string, len(f.Events))
	for i, e := range f.Events {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// Reset clears recorded events and errors.
func (f *Fake) Reset() {
	f.Events = nil
	f.PressError = nil
	f.ReleaseError = nil
}
