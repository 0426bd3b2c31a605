package dispatch

import "github.com/sweeney/macropad/internal/macro"

// Toggle is a macro whose middle section depends on a boolean that flips
// each time the macro starts, such as switching the audio output between
// headphones and speakers. The state lives only in memory and resets to
// Initial on restart.
type Toggle struct {
	ID      string
	Initial bool
	Prefix  []macro.Step
	// WhenOn plays while the state is true, after which it becomes false.
	WhenOn []macro.Step
	// WhenOff plays while the state is false, after which it becomes true.
	WhenOff []macro.Step
	Suffix  []macro.Step
}

// build returns the macro for the given current state.
func (t Toggle) build(state bool) macro.Macro {
	branch := t.WhenOff
	if state {
		branch = t.WhenOn
	}
	steps := make([]macro.Step, 0, len(t.Prefix)+len(branch)+len(t.Suffix))
	steps = append(steps, t.Prefix...)
	steps = append(steps, branch...)
	steps = append(steps, t.Suffix...)
	return macro.Macro{Name: t.ID, Steps: steps}
}
