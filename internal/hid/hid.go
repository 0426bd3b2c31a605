// Package hid is the HID output boundary. The pipeline emits abstract
// press and release events for key combos; implementations turn them into
// USB reports, log lines, or test recordings.
package hid

import "github.com/sweeney/macropad/internal/keycode"

// Output receives key events from the dispatcher, the encoder and the macro
// player. Implementations must not block the tick.
type Output interface {
	// Press reports c's modifiers and key as held.
	Press(c keycode.Combo) error

	// Release reports c's key and modifiers as no longer held.
	Release(c keycode.Combo) error
}

// Tap presses and immediately releases c. Both calls are made even if the
// press fails, so a half-written report never leaves a key stuck.
func Tap(out Output, c keycode.Combo) error {
	perr := out.Press(c)
	rerr := out.Release(c)
	if perr != nil {
		return perr
	}
	return rerr
}
