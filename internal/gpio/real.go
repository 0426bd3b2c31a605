//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealConfig selects the chip, the lines and their polarity.
type RealConfig struct {
	Chip string
	Pins Pins
	// ActiveLow marks switches wired to ground; the lines are then biased
	// with the internal pull-up and read inverted.
	ActiveLow bool
}

// RealReader reads inputs from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	pins   Pins
	lines  *gpiocdev.Lines
	values []int
	chip   string
}

// NewRealReader requests every configured line as an input.
func NewRealReader(cfg RealConfig) (*RealReader, error) {
	chip := cfg.Chip
	if chip == "" {
		chip = "gpiochip0"
	}
	offsets := cfg.Pins.offsets()
	if len(offsets) == 0 {
		return nil, errors.New("gpio: no input lines configured")
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithConsumer("macropad")}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow, gpiocdev.WithPullUp)
	} else {
		opts = append(opts, gpiocdev.WithPullDown)
	}

	lines, err := gpiocdev.RequestLines(chip, offsets, opts...)
	if err != nil {
		return nil, fmt.Errorf("request lines %v on %s: %w", offsets, chip, err)
	}

	return &RealReader{
		pins:   cfg.Pins,
		lines:  lines,
		values: make([]int, len(offsets)),
		chip:   chip,
	}, nil
}

// Read returns the logical level of every line. The kernel applies the
// active-low inversion, so a 1 is always "pressed".
func (r *RealReader) Read() (Sample, error) {
	if err := r.lines.Values(r.values); err != nil {
		return Sample{}, fmt.Errorf("read lines on %s: %w", r.chip, err)
	}
	return r.pins.sampleFrom(r.values), nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing so nothing is left biased across a reboot.
func (r *RealReader) Close() error {
	if r.lines == nil {
		return nil
	}
	var errs []error
	if err := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure lines: %w", err))
	}
	if err := r.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close lines: %w", err))
	}
	r.lines = nil
	return errors.Join(errs...)
}
