//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	evdev "github.com/gvalkov/golang-evdev"
)

// EvdevConfig names the evdev device and the key codes read from it. Key i
// of the pad is driven by the evdev key code Keys[i]. EncButton is the key
// code of the encoder push button, or NoPin. Rotation cannot be read from
// evdev.
type EvdevConfig struct {
	Device    string
	Keys      []int
	EncButton int
	// Grab takes the device exclusively so its keys do not also reach the
	// local console.
	Grab bool
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// EvdevReader reads key levels from a Linux input device. A goroutine
// consumes the event stream and updates a level table; Read snapshots it.
type EvdevReader struct {
	dev    *evdev.InputDevice
	grab   bool
	logger *slog.Logger
	keys   []atomic.Bool
	button atomic.Bool
	codes  map[uint16]int // key code -> index in keys, or -1 for the button
	err    atomic.Pointer[error]
	closed atomic.Bool
	once   sync.Once
}

// NewEvdevReader opens the device and starts reading events.
func NewEvdevReader(cfg EvdevConfig) (*EvdevReader, error) {
	if len(cfg.Keys) == 0 {
		return nil, errors.New("evdev: no key codes configured")
	}
	dev, err := evdev.Open(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &EvdevReader{
		dev:    dev,
		grab:   cfg.Grab,
		logger: logger,
		keys:   make([]atomic.Bool, len(cfg.Keys)),
		codes:  make(map[uint16]int, len(cfg.Keys)+1),
	}
	for i, code := range cfg.Keys {
		r.codes[uint16(code)] = i
	}
	if cfg.EncButton != NoPin {
		r.codes[uint16(cfg.EncButton)] = -1
	}

	if cfg.Grab {
		if err := dev.Grab(); err != nil {
			dev.File.Close()
			return nil, fmt.Errorf("grab %s: %w", cfg.Device, err)
		}
	}
	logger.Info("evdev device attached", "device", cfg.Device, "name", dev.Name)

	go r.loop()
	return r, nil
}

func (r *EvdevReader) loop() {
	for {
		ev, err := r.dev.ReadOne()
		if err != nil {
			if !r.closed.Load() {
				r.logger.Warn("evdev event stream ended", "device", r.dev.Fn, "error", err)
			}
			r.err.Store(&err)
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		kev := evdev.NewKeyEvent(ev)
		if kev.State == evdev.KeyHold {
			continue
		}
		r.set(kev.Scancode, kev.State == evdev.KeyDown)
	}
}

func (r *EvdevReader) set(code uint16, down bool) {
	i, ok := r.codes[code]
	if !ok {
		return
	}
	if i < 0 {
		r.button.Store(down)
		return
	}
	r.keys[i].Store(down)
}

// Read returns the current key levels. Once the device is lost every Read
// returns the error that ended the event stream.
func (r *EvdevReader) Read() (Sample, error) {
	if errp := r.err.Load(); errp != nil {
		return Sample{}, fmt.Errorf("evdev: %w", *errp)
	}
	s := Sample{Keys: make([]bool, len(r.keys))}
	for i := range r.keys {
		s.Keys[i] = r.keys[i].Load()
	}
	s.EncButton = r.button.Load()
	return s, nil
}

// Close releases the grab and closes the device. The event loop exits on
// its next read error.
func (r *EvdevReader) Close() error {
	var errs []error
	r.once.Do(func() {
		r.closed.Store(true)
		if r.grab {
			if err := r.dev.Release(); err != nil {
				errs = append(errs, fmt.Errorf("release: %w", err))
			}
		}
		if err := r.dev.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	})
	return errors.Join(errs...)
}
