package keymap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/macropad/internal/keycode"
)

// ParseAction parses a keymap cell. Accepted forms:
//
//	""  "NO"  "TRNS"     NoOp
//	"MACRO(name)"        MacroRef
//	"LAYER(n)"  "TO(n)"  LayerSelect
//	anything else        a key expression, see keycode.Parse
func ParseAction(expr string) (Action, error) {
	s := strings.TrimSpace(expr)
	upper := strings.ToUpper(strings.TrimPrefix(s, "KC."))

	switch upper {
	case "", "NO", "TRNS", "XXXXXXX":
		return NoOp{}, nil
	}

	if arg, ok := call(s, "MACRO"); ok {
		if arg == "" {
			return nil, fmt.Errorf("action %q: empty macro name", expr)
		}
		return MacroRef{ID: arg}, nil
	}
	for _, fn := range []string{"LAYER", "TO"} {
		if arg, ok := call(s, fn); ok {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, fmt.Errorf("action %q: layer index: %w", expr, err)
			}
			return LayerSelect{Index: n}, nil
		}
	}

	c, err := keycode.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", expr, err)
	}
	return KeyAction(c), nil
}

// call matches "FN(arg)" case-insensitively on FN and returns arg with its
// original case.
func call(s, fn string) (string, bool) {
	if len(s) < len(fn)+2 || !strings.EqualFold(s[:len(fn)], fn) {
		return "", false
	}
	rest := strings.TrimSpace(s[len(fn):])
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", false
	}
	return strings.TrimSpace(rest[1 : len(rest)-1]), true
}
