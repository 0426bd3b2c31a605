// Package keymap holds the layered keymap: the Action variants a key can be
// bound to and the Stack that resolves a key position against the active
// layer.
package keymap

import (
	"fmt"

	"github.com/sweeney/macropad/internal/keycode"
)

// Action is what a key position does on the active layer. It is one of
// SimpleKey, ModifiedKey, LayerSelect, MacroRef or NoOp.
type Action interface {
	fmt.Stringer
	isAction()
}

// SimpleKey taps a single key.
type SimpleKey struct {
	Key keycode.Key
}

// ModifiedKey taps a key while holding a modifier set.
type ModifiedKey struct {
	Key  keycode.Key
	Mods keycode.Modifier
}

// LayerSelect makes another layer active.
type LayerSelect struct {
	Index int
}

// MacroRef plays the named macro.
type MacroRef struct {
	ID string
}

// NoOp marks an unmapped position.
type NoOp struct{}

func (SimpleKey) isAction()   {}
func (ModifiedKey) isAction() {}
func (LayerSelect) isAction() {}
func (MacroRef) isAction()    {}
func (NoOp) isAction()        {}

func (a SimpleKey) String() string   { return a.Key.String() }
func (a ModifiedKey) String() string { return a.Combo().String() }
func (a LayerSelect) String() string { return fmt.Sprintf("LAYER(%d)", a.Index) }
func (a MacroRef) String() string    { return fmt.Sprintf("MACRO(%s)", a.ID) }
func (NoOp) String() string          { return "NO" }

// Combo returns the key and modifiers as one HID combo.
func (a ModifiedKey) Combo() keycode.Combo {
	return keycode.Combo{Key: a.Key, Mods: a.Mods}
}

// KeyAction returns the action that taps c: a SimpleKey when c carries no
// modifiers, a ModifiedKey otherwise.
func KeyAction(c keycode.Combo) Action {
	if c.Mods == 0 {
		return SimpleKey{Key: c.Key}
	}
	return ModifiedKey{Key: c.Key, Mods: c.Mods}
}
