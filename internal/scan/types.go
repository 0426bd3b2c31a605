// Package scan turns raw per-position input levels into debounced press and
// release edges. Like the rest of the pipeline it has no I/O and no clock:
// one call to Process is one scan tick.
package scan

import "fmt"

// EdgeType is the direction of a debounced transition.
type EdgeType string

const (
	Pressed  EdgeType = "PRESSED"
	Released EdgeType = "RELEASED"
)

// Edge is a debounced transition at one key matrix position.
type Edge struct {
	Position int
	Type     EdgeType
}

func (e Edge) String() string {
	return fmt.Sprintf("%d:%s", e.Position, e.Type)
}

// positionState tracks debounce state for a single position.
type positionState struct {
	// Current stable (debounced) level
	stable bool
	// Level being counted toward a transition or baseline
	pending bool
	// Consecutive samples equal to pending
	count int
	// Whether the initial stable level has been established
	baselined bool
}

// Counts tracks the number of edges emitted since startup.
type Counts struct {
	Pressed  int
	Released int
}
