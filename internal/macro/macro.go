// Package macro plays timed key sequences without blocking the scan loop.
// Delays are polled against the tick time passed in by the caller; nothing
// here sleeps.
package macro

import (
	"fmt"
	"time"

	"github.com/sweeney/macropad/internal/keycode"
)

// StepKind identifies what a Step does.
type StepKind string

const (
	KindPress   StepKind = "press"
	KindRelease StepKind = "release"
	KindTap     StepKind = "tap"
	KindDelay   StepKind = "delay"
)

// Step is one element of a macro. Combo is used by press, release and tap;
// Delay only by delay.
type Step struct {
	Kind  StepKind
	Combo keycode.Combo
	Delay time.Duration
}

// Press returns a step that presses c and leaves it held.
func Press(c keycode.Combo) Step { return Step{Kind: KindPress, Combo: c} }

// Release returns a step that releases c.
func Release(c keycode.Combo) Step { return Step{Kind: KindRelease, Combo: c} }

// Tap returns a step that presses and releases c.
func Tap(c keycode.Combo) Step { return Step{Kind: KindTap, Combo: c} }

// Delay returns a step that waits at least d before the next step.
func Delay(d time.Duration) Step { return Step{Kind: KindDelay, Delay: d} }

func (s Step) String() string {
	if s.Kind == KindDelay {
		return fmt.Sprintf("delay %d", s.Delay.Milliseconds())
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Combo)
}

// Macro is a named, immutable step sequence.
type Macro struct {
	Name  string
	Steps []Step
}

// Duration returns the sum of the macro's delays: the minimum time it takes
// to play when taps have zero width.
func (m Macro) Duration() time.Duration {
	var d time.Duration
	for _, s := range m.Steps {
		if s.Kind == KindDelay {
			d += s.Delay
		}
	}
	return d
}
