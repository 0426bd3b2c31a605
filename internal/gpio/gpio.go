// Package gpio provides key matrix and encoder input reading with hardware
// abstraction. The real implementations use the Linux GPIO character device
// or an evdev input device. The fake implementation allows testing without
// hardware.
package gpio

// Reader reads the level of every input line once per tick.
type Reader interface {
	// Read returns the logical levels of all inputs (true = pressed, or
	// encoder channel active). Polarity has already been applied.
	Read() (Sample, error)

	// Close releases input resources.
	Close() error
}

// Sample is a single reading of all inputs, already in logical form.
type Sample struct {
	Keys      []bool
	EncA      bool
	EncB      bool
	EncButton bool
}

// NoPin marks an input line that is not wired.
const NoPin = -1

// Pins names the input lines (GPIO offsets on the chip).
type Pins struct {
	Keys      []int
	EncA      int
	EncB      int
	EncButton int
}

// Default pin assignment of the six-key pad with a rotary encoder.
var DefaultPins = Pins{
	Keys:      []int{29, 0, 1, 28, 27, 26},
	EncA:      4,
	EncB:      2,
	EncButton: 3,
}

// offsets returns every wired line in sample order: keys, then encoder A,
// B and button.
func (p Pins) offsets() []int {
	out := append([]int(nil), p.Keys...)
	for _, pin := range []int{p.EncA, p.EncB, p.EncButton} {
		if pin != NoPin {
			out = append(out, pin)
		}
	}
	return out
}

// sampleFrom converts raw logical values, in offsets order, into a Sample.
func (p Pins) sampleFrom(values []int) Sample {
	s := Sample{Keys: make([]bool, len(p.Keys))}
	i := 0
	for ; i < len(p.Keys); i++ {
		s.Keys[i] = values[i] != 0
	}
	for _, e := range []struct {
		pin int
		dst *bool
	}{{p.EncA, &s.EncA}, {p.EncB, &s.EncB}, {p.EncButton, &s.EncButton}} {
		if e.pin == NoPin {
			continue
		}
		*e.dst = values[i] != 0
		i++
	}
	return s
}
