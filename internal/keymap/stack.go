package keymap

import (
	"errors"
	"fmt"
)

// ErrLayerOutOfRange is returned by SetActive for an index outside the stack.
var ErrLayerOutOfRange = errors.New("layer index out of range")

// ConfigError reports an invalid keymap. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "keymap config: " + e.Reason
	}
	return fmt.Sprintf("keymap config: %s: %s", e.Field, e.Reason)
}

// Layer is one full keymap alternative. Actions has one entry per key
// matrix position.
type Layer struct {
	Name    string
	Actions []Action
}

// Stack owns the ordered layers and the active layer index. It is not safe
// for concurrent use; the tick loop is its only caller.
type Stack struct {
	size   int
	layers []Layer
	active int
}

// NewStack validates the layers against the matrix size and returns a stack
// with layer 0 active. Nil actions are stored as NoOp.
func NewStack(size int, layers []Layer) (*Stack, error) {
	if size <= 0 {
		return nil, &ConfigError{Field: "matrix", Reason: "must have at least one position"}
	}
	if len(layers) == 0 {
		return nil, &ConfigError{Field: "layers", Reason: "at least one layer is required"}
	}

	owned := make([]Layer, len(layers))
	for i, l := range layers {
		if len(l.Actions) != size {
			return nil, &ConfigError{
				Field:  fmt.Sprintf("layers[%d] (%s)", i, l.Name),
				Reason: fmt.Sprintf("has %d actions, matrix has %d positions", len(l.Actions), size),
			}
		}
		actions := make([]Action, size)
		for j, a := range l.Actions {
			if a == nil {
				a = NoOp{}
			}
			actions[j] = a
		}
		owned[i] = Layer{Name: l.Name, Actions: actions}
	}

	return &Stack{size: size, layers: owned}, nil
}

// Resolve returns the action bound to position on the active layer.
// An out-of-range position is a programming error and panics.
func (s *Stack) Resolve(position int) Action {
	if position < 0 || position >= s.size {
		panic(fmt.Sprintf("keymap: position %d out of range [0,%d)", position, s.size))
	}
	return s.layers[s.active].Actions[position]
}

// SetActive makes layer index active. Out-of-range indices are rejected and
// leave the active layer unchanged; they never wrap.
func (s *Stack) SetActive(index int) error {
	if index < 0 || index >= len(s.layers) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrLayerOutOfRange, index, len(s.layers))
	}
	s.active = index
	return nil
}

// ActiveIndex returns the active layer index.
func (s *Stack) ActiveIndex() int {
	return s.active
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	return len(s.layers)
}

// Size returns the number of key matrix positions.
func (s *Stack) Size() int {
	return s.size
}

// Label returns the display name of layer index.
func (s *Stack) Label(index int) string {
	return s.layers[index].Name
}

// Labels returns the display names of all layers in order.
func (s *Stack) Labels() []string {
	out := make([]string, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Name
	}
	return out
}

// Macros returns the IDs of every macro referenced by any layer.
func (s *Stack) Macros() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range s.layers {
		for _, a := range l.Actions {
			if m, ok := a.(MacroRef); ok && !seen[m.ID] {
				seen[m.ID] = true
				ids = append(ids, m.ID)
			}
		}
	}
	return ids
}
