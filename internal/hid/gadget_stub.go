//go:build !linux

package hid

import (
	"errors"

	"github.com/sweeney/macropad/internal/keycode"
)

// Gadget is not available on non-Linux platforms.
type Gadget struct{}

// OpenGadget returns an error on non-Linux platforms.
func OpenGadget(keyboardPath, consumerPath string) (*Gadget, error) {
	return nil, errors.New("hid: USB gadget not supported on this platform (requires Linux)")
}

// Press is not implemented on non-Linux platforms.
func (g *Gadget) Press(c keycode.Combo) error {
	return errors.New("hid: not supported")
}

// Release is not implemented on non-Linux platforms.
func (g *Gadget) Release(c keycode.Combo) error {
	return errors.New("hid: not supported")
}

// Close is not implemented on non-Linux platforms.
func (g *Gadget) Close() error {
	return nil
}
