// Package keycode defines HID usages for the keyboard and consumer pages,
// the modifier bit set of a boot keyboard report, and a parser for key
// expressions such as "LCTL(EQL)" or "VOLU".
package keycode

import (
	"fmt"
	"strings"
)

// Page is a HID usage page.
type Page uint8

const (
	PageKeyboard Page = 0x07
	PageConsumer Page = 0x0C
)

// Key is a HID usage qualified by its usage page. The zero Key is "no key".
type Key uint32

// Keyboard returns the keyboard-page key for a usage ID.
func Keyboard(usage uint16) Key {
	return Key(uint32(PageKeyboard)<<16 | uint32(usage))
}

// Consumer returns the consumer-page key for a usage ID.
func Consumer(usage uint16) Key {
	return Key(uint32(PageConsumer)<<16 | uint32(usage))
}

// Page returns the usage page of k.
func (k Key) Page() Page { return Page(k >> 16) }

// Usage returns the usage ID of k within its page.
func (k Key) Usage() uint16 { return uint16(k) }

// IsConsumer reports whether k is a consumer-control usage (media, volume).
func (k Key) IsConsumer() bool { return k.Page() == PageConsumer }

// Modifier returns the modifier bit for the keyboard-page modifier usages
// 0xE0..0xE7 (LeftControl..RightGUI).
func (k Key) Modifier() (Modifier, bool) {
	if k.Page() != PageKeyboard || k.Usage() < 0xE0 || k.Usage() > 0xE7 {
		return 0, false
	}
	return Modifier(1 << (k.Usage() - 0xE0)), true
}

func (k Key) String() string {
	if k == 0 {
		return "NO"
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k.IsConsumer() {
		return fmt.Sprintf("CONSUMER_%#04x", k.Usage())
	}
	return fmt.Sprintf("KEY_%#02x", k.Usage())
}

// Modifier is the modifier byte of a boot keyboard report.
type Modifier uint8

const (
	LCtrl Modifier = 1 << iota
	LShift
	LAlt
	LGUI
	RCtrl
	RShift
	RAlt
	RGUI
)

var modifierNames = [8]string{"LCTL", "LSFT", "LALT", "LGUI", "RCTL", "RSFT", "RALT", "RGUI"}

func (m Modifier) String() string {
	var parts []string
	for i, name := range modifierNames {
		if m&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Combo is a key together with the modifiers held while it is pressed.
// It is the unit the HID output boundary presses and releases.
type Combo struct {
	Key  Key
	Mods Modifier
}

// Of returns a Combo without modifiers.
func Of(k Key) Combo { return Combo{Key: k} }

// With returns c with the given modifiers added.
func (c Combo) With(m Modifier) Combo {
	c.Mods |= m
	return c
}

// IsZero reports whether c carries neither a key nor modifiers.
func (c Combo) IsZero() bool { return c.Key == 0 && c.Mods == 0 }

// String renders c in the same expression syntax Parse accepts.
func (c Combo) String() string {
	s := c.Key.String()
	for i := len(modifierNames) - 1; i >= 0; i-- {
		if c.Mods&(1<<i) != 0 {
			s = modifierNames[i] + "(" + s + ")"
		}
	}
	return s
}
