package hid

import (
	"encoding/binary"
	"errors"

	"github.com/sweeney/macropad/internal/keycode"
)

// ErrRollover is returned when a seventh non-modifier key is pressed while
// six are already held in the boot report.
var ErrRollover = errors.New("hid: more than 6 keys held")

// KeyboardReport builds 8-byte boot protocol keyboard reports:
// modifiers, reserved, then up to six key usages.
type KeyboardReport struct {
	// Modifier bits and key usages are reference counted so releasing one
	// combo keeps a key held by another.
	modRefs [8]int
	keys    [6]byte
	keyRefs [6]int
	n       int
}

// Press adds c to the report.
func (r *KeyboardReport) Press(c keycode.Combo) error {
	r.addMods(c.Mods, 1)
	if m, ok := c.Key.Modifier(); ok {
		r.addMods(m, 1)
		return nil
	}
	if c.Key == 0 || c.Key.IsConsumer() {
		return nil
	}
	usage := byte(c.Key.Usage())
	for i, k := range r.keys[:r.n] {
		if k == usage {
			r.keyRefs[i]++
			return nil
		}
	}
	if r.n == len(r.keys) {
		return ErrRollover
	}
	r.keys[r.n] = usage
	r.keyRefs[r.n] = 1
	r.n++
	return nil
}

// Release removes c from the report.
func (r *KeyboardReport) Release(c keycode.Combo) {
	r.addMods(c.Mods, -1)
	if m, ok := c.Key.Modifier(); ok {
		r.addMods(m, -1)
		return
	}
	if c.Key == 0 || c.Key.IsConsumer() {
		return
	}
	usage := byte(c.Key.Usage())
	for i, k := range r.keys[:r.n] {
		if k != usage {
			continue
		}
		r.keyRefs[i]--
		if r.keyRefs[i] > 0 {
			return
		}
		// Close the gap so held keys stay contiguous
		copy(r.keys[i:], r.keys[i+1:r.n])
		copy(r.keyRefs[i:], r.keyRefs[i+1:r.n])
		r.n--
		r.keys[r.n] = 0
		r.keyRefs[r.n] = 0
		return
	}
}

func (r *KeyboardReport) addMods(m keycode.Modifier, delta int) {
	for i := range r.modRefs {
		if m&(1<<i) == 0 {
			continue
		}
		r.modRefs[i] += delta
		if r.modRefs[i] < 0 {
			r.modRefs[i] = 0
		}
	}
}

// Modifiers returns the currently held modifier byte.
func (r *KeyboardReport) Modifiers() keycode.Modifier {
	var m keycode.Modifier
	for i, n := range r.modRefs {
		if n > 0 {
			m |= 1 << i
		}
	}
	return m
}

// Bytes returns the wire form of the report.
func (r *KeyboardReport) Bytes() []byte {
	b := make([]byte, 8)
	b[0] = byte(r.Modifiers())
	copy(b[2:], r.keys[:r.n])
	return b
}

// ConsumerReport builds 2-byte consumer control reports carrying a single
// 16-bit usage, little-endian.
type ConsumerReport struct {
	usage uint16
}

// Press sets the active consumer usage.
func (r *ConsumerReport) Press(k keycode.Key) {
	r.usage = k.Usage()
}

// Release clears the active usage if it is k.
func (r *ConsumerReport) Release(k keycode.Key) {
	if r.usage == k.Usage() {
		r.usage = 0
	}
}

// Bytes returns the wire form of the report.
func (r *ConsumerReport) Bytes() []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, r.usage)
	return b
}
