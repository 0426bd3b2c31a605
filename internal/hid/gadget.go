//go:build linux

package hid

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/sweeney/macropad/internal/keycode"
)

// ErrHostNotReading is returned when the gadget device would block, which
// happens when the USB host is not polling (suspended or unplugged). The
// report is dropped rather than stalling the tick.
var ErrHostNotReading = errors.New("hid: host not reading reports")

// Gadget writes reports to Linux USB HID gadget device files
// (/dev/hidgN, configured through configfs).
type Gadget struct {
	kbdFD    int
	consFD   int
	keyboard KeyboardReport
	consumer ConsumerReport
}

// OpenGadget opens the keyboard gadget device and, if consumerPath is not
// empty, the consumer control gadget device. Both are opened non-blocking.
func OpenGadget(keyboardPath, consumerPath string) (*Gadget, error) {
	kbd, err := unix.Open(keyboardPath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open keyboard gadget %s: %w", keyboardPath, err)
	}

	g := &Gadget{kbdFD: kbd, consFD: -1}
	if consumerPath != "" {
		cons, err := unix.Open(consumerPath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			unix.Close(kbd)
			return nil, fmt.Errorf("open consumer gadget %s: %w", consumerPath, err)
		}
		g.consFD = cons
	}
	return g, nil
}

// Press updates the held state and writes the resulting report.
func (g *Gadget) Press(c keycode.Combo) error {
	if c.Key.IsConsumer() {
		g.consumer.Press(c.Key)
		if c.Mods == 0 {
			return g.writeConsumer()
		}
		// Modifiers on a consumer key go out on the keyboard interface first
		if err := g.keyboard.Press(keycode.Combo{Mods: c.Mods}); err != nil {
			return err
		}
		if err := g.writeKeyboard(); err != nil {
			return err
		}
		return g.writeConsumer()
	}
	if err := g.keyboard.Press(c); err != nil {
		return err
	}
	return g.writeKeyboard()
}

// Release updates the held state and writes the resulting report.
func (g *Gadget) Release(c keycode.Combo) error {
	if c.Key.IsConsumer() {
		g.consumer.Release(c.Key)
		err := g.writeConsumer()
		if c.Mods != 0 {
			g.keyboard.Release(keycode.Combo{Mods: c.Mods})
			if kerr := g.writeKeyboard(); err == nil {
				err = kerr
			}
		}
		return err
	}
	g.keyboard.Release(c)
	return g.writeKeyboard()
}

func (g *Gadget) writeKeyboard() error {
	return write(g.kbdFD, g.keyboard.Bytes())
}

func (g *Gadget) writeConsumer() error {
	if g.consFD < 0 {
		return errors.New("hid: no consumer gadget configured")
	}
	return write(g.consFD, g.consumer.Bytes())
}

func write(fd int, report []byte) error {
	_, err := unix.Write(fd, report)
	if errors.Is(err, unix.EAGAIN) {
		return ErrHostNotReading
	}
	if err != nil {
		return fmt.Errorf("hid: write report: %w", err)
	}
	return nil
}

// Close releases all keys and closes the device files.
func (g *Gadget) Close() error {
	var errs []error

	g.keyboard = KeyboardReport{}
	g.consumer = ConsumerReport{}
	// Best effort: an all-up report so the host does not see stuck keys
	g.writeKeyboard()
	if g.consFD >= 0 {
		g.writeConsumer()
		if err := unix.Close(g.consFD); err != nil {
			errs = append(errs, fmt.Errorf("close consumer gadget: %w", err))
		}
	}
	if err := unix.Close(g.kbdFD); err != nil {
		errs = append(errs, fmt.Errorf("close keyboard gadget: %w", err))
	}
	return errors.Join(errs...)
}
