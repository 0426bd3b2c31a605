//go:build !linux

package gpio

import (
	"errors"
	"log/slog"
)

// RealConfig selects the chip, the lines and their polarity.
type RealConfig struct {
	Chip      string
	Pins      Pins
	ActiveLow bool
}

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(RealConfig) (*RealReader, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Sample, error) {
	return Sample{}, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// EvdevConfig names the evdev device and the key codes read from it.
type EvdevConfig struct {
	Device    string
	Keys      []int
	EncButton int
	Grab      bool
	Logger    *slog.Logger
}

// EvdevReader is not available on non-Linux platforms.
type EvdevReader struct{}

// NewEvdevReader returns an error on non-Linux platforms.
func NewEvdevReader(EvdevConfig) (*EvdevReader, error) {
	return nil, errors.New("evdev: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *EvdevReader) Read() (Sample, error) {
	return Sample{}, errors.New("evdev: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *EvdevReader) Close() error {
	return nil
}
