package scan

import "fmt"

// Scanner debounces a fixed number of positions. A level change is trusted
// only after it has been sampled on N consecutive ticks.
type Scanner struct {
	samples   int
	positions []positionState
	baselined bool
	ticks     int
	counts    Counts
}

// New creates a scanner for the given number of positions with a debounce
// window of samples consecutive ticks. A window below 1 is treated as 1.
func New(positions, samples int) *Scanner {
	if samples < 1 {
		samples = 1
	}
	return &Scanner{
		samples:   samples,
		positions: make([]positionState, positions),
	}
}

// Process takes one tick of logical levels (true = pressed) and returns the
// edges that completed their debounce window on this tick, in ascending
// position order. Each position settles on its own: a position emits edges
// only once it has a baseline, so a key held at power-up never fires a press
// and a position that never stops flickering stays silent without holding
// up the others.
func (s *Scanner) Process(levels []bool) []Edge {
	if len(levels) != len(s.positions) {
		panic(fmt.Sprintf("scan: got %d levels for %d positions", len(levels), len(s.positions)))
	}
	if s.ticks < s.samples {
		s.ticks++
	}

	var edges []Edge
	for i, level := range levels {
		if s.processPosition(&s.positions[i], level) {
			edges = append(edges, Edge{Position: i, Type: edgeType(level)})
		}
	}

	if !s.baselined {
		s.baselined = s.allBaselined()
	}

	for _, e := range edges {
		if e.Type == Pressed {
			s.counts.Pressed++
		} else {
			s.counts.Released++
		}
	}
	return edges
}

func (s *Scanner) allBaselined() bool {
	for i := range s.positions {
		if !s.positions[i].baselined {
			return false
		}
	}
	return true
}

// processPosition applies one sample to a position and reports whether its
// stable level changed. A position still settling never reports a change.
func (s *Scanner) processPosition(p *positionState, level bool) bool {
	if !p.baselined {
		if p.count == 0 || p.pending != level {
			// Start observing, or restart after a change during baseline
			p.pending = level
			p.count = 1
		} else {
			p.count++
		}
		if p.count >= s.samples {
			p.stable = level
			p.baselined = true
			p.count = 0
		}
		return false
	}

	if level == p.stable {
		// Bounce back to the stable level discards the pending transition
		p.count = 0
		return false
	}

	p.count++
	if p.count < s.samples {
		return false
	}
	p.stable = level
	p.count = 0
	return true
}

func edgeType(level bool) EdgeType {
	if level {
		return Pressed
	}
	return Released
}

// IsBaselined reports whether every position has an established level.
// Once true it stays true.
func (s *Scanner) IsBaselined() bool {
	return s.baselined
}

// Baselined reports whether one position has an established level.
func (s *Scanner) Baselined(position int) bool {
	return s.positions[position].baselined
}

// Settled reports whether a full debounce window has been sampled. After
// that, positions that are still not baselined are flickering.
func (s *Scanner) Settled() bool {
	return s.ticks >= s.samples
}

// Stable returns the debounced level of a position.
func (s *Scanner) Stable(position int) bool {
	return s.positions[position].stable
}

// Len returns the number of positions.
func (s *Scanner) Len() int {
	return len(s.positions)
}

// Counts returns the number of edges emitted since startup.
func (s *Scanner) Counts() Counts {
	return s.counts
}
