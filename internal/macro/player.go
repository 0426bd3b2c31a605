package macro

import (
	"errors"
	"time"

	"github.com/sweeney/macropad/internal/hid"
)

// ErrBusy is returned by Start while another macro is in flight.
var ErrBusy = errors.New("macro: player busy")

// Options configures a Player.
type Options struct {
	// MinTapWidth is how long a tap step holds its key before releasing.
	// Zero releases in the same tick as the press.
	MinTapWidth time.Duration
}

// run is the execution context of the in-flight macro.
type run struct {
	macro  Macro
	source int
	step   int
	// Tick time at which the current step became current
	stepStart time.Time
	started   bool
	// A tap whose release is waiting for MinTapWidth
	tapHeld bool
}

// Player owns a single macro execution slot. It is not safe for concurrent
// use; the tick loop is its only caller.
type Player struct {
	out  hid.Output
	opts Options
	cur  *run
}

// NewPlayer creates a player that emits key events to out.
func NewPlayer(out hid.Output, opts Options) *Player {
	return &Player{out: out, opts: opts}
}

// Start arms m for playback, triggered from key position source. The first
// steps execute on the next call to Tick, which the tick loop makes later in
// the same tick. While a macro is in flight every Start returns ErrBusy,
// including one from the key that started it; requests are never queued.
func (p *Player) Start(m Macro, source int, now time.Time) error {
	if p.cur != nil {
		return ErrBusy
	}
	p.cur = &run{macro: m, source: source, stepStart: now}
	return nil
}

// Tick advances the in-flight macro as far as now allows. Press, release
// and zero-width taps run immediately; a delay holds the macro until at
// least its duration has passed since the delay became current. Delays are
// therefore minimums rounded up to the tick period.
//
// finished is true on the tick that completes the macro and frees the slot.
// Output errors are collected and returned but never stop the macro.
func (p *Player) Tick(now time.Time) (finished bool, err error) {
	r := p.cur
	if r == nil {
		return false, nil
	}
	if !r.started {
		r.started = true
		r.stepStart = now
	}

	var errs []error
	for r.step < len(r.macro.Steps) {
		s := r.macro.Steps[r.step]
		switch s.Kind {
		case KindPress:
			errs = appendErr(errs, p.out.Press(s.Combo))
		case KindRelease:
			errs = appendErr(errs, p.out.Release(s.Combo))
		case KindTap:
			if !r.tapHeld {
				errs = appendErr(errs, p.out.Press(s.Combo))
				if p.opts.MinTapWidth > 0 {
					r.tapHeld = true
					r.stepStart = now
					return false, errors.Join(errs...)
				}
			} else if now.Sub(r.stepStart) < p.opts.MinTapWidth {
				return false, errors.Join(errs...)
			}
			r.tapHeld = false
			errs = appendErr(errs, p.out.Release(s.Combo))
		case KindDelay:
			if now.Sub(r.stepStart) < s.Delay {
				return false, errors.Join(errs...)
			}
		}
		r.step++
		r.stepStart = now
	}

	p.cur = nil
	return true, errors.Join(errs...)
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

// Busy reports whether a macro is in flight.
func (p *Player) Busy() bool {
	return p.cur != nil
}

// Running returns the in-flight macro's name and source position.
func (p *Player) Running() (name string, source int, ok bool) {
	if p.cur == nil {
		return "", 0, false
	}
	return p.cur.macro.Name, p.cur.source, true
}

// Progress returns the in-flight macro's current step index and step count.
func (p *Player) Progress() (step, total int) {
	if p.cur == nil {
		return 0, 0
	}
	return p.cur.step, len(p.cur.macro.Steps)
}
