package keycode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned by Parse for names it does not know.
var ErrUnknownKey = errors.New("unknown key")

// wrappers are the modifier functions accepted around a key expression.
var wrappers = map[string]Modifier{
	"LCTL": LCtrl, "LCTRL": LCtrl,
	"LSFT": LShift, "LSHIFT": LShift,
	"LALT": LAlt, "LOPT": LAlt,
	"LGUI": LGUI, "LCMD": LGUI, "LWIN": LGUI,
	"RCTL": RCtrl, "RCTRL": RCtrl,
	"RSFT": RShift, "RSHIFT": RShift,
	"RALT": RAlt, "ROPT": RAlt,
	"RGUI": RGUI, "RCMD": RGUI, "RWIN": RGUI,
}

// Parse parses a key expression. A bare name ("A", "ENTER", "VOLU", "LSFT")
// names a single key; a modifier function ("LCTL(EQL)", "LCTL(LSFT(P))")
// adds its modifier to the inner expression. Names are case-insensitive and
// may carry a "KC." prefix.
func Parse(expr string) (Combo, error) {
	s := strings.ToUpper(strings.TrimSpace(expr))
	s = strings.TrimPrefix(s, "KC.")
	if s == "" {
		return Combo{}, fmt.Errorf("%w: empty expression", ErrUnknownKey)
	}

	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Combo{}, fmt.Errorf("%w: unbalanced parentheses in %q", ErrUnknownKey, expr)
		}
		fn := strings.TrimSpace(s[:open])
		mod, ok := wrappers[fn]
		if !ok {
			return Combo{}, fmt.Errorf("%w: %q is not a modifier", ErrUnknownKey, fn)
		}
		inner, err := Parse(s[open+1 : len(s)-1])
		if err != nil {
			return Combo{}, err
		}
		return inner.With(mod), nil
	}

	c, ok := names[s]
	if !ok {
		return Combo{}, fmt.Errorf("%w: %q", ErrUnknownKey, expr)
	}
	return c, nil
}

// MustParse is like Parse but panics on error. For tables built at init.
func MustParse(expr string) Combo {
	c, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return c
}
