package hid

import (
	"log/slog"

	"github.com/sweeney/macropad/internal/keycode"
)

// LogOutput writes key events to a logger instead of a USB gadget. Used for
// dry runs on machines without a HID gadget configured.
type LogOutput struct {
	logger *slog.Logger
}

// NewLogOutput creates a LogOutput. A nil logger uses slog.Default().
func NewLogOutput(logger *slog.Logger) *LogOutput {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogOutput{logger: logger}
}

// Press logs a key-down event.
func (l *LogOutput) Press(c keycode.Combo) error {
	l.logger.Info("hid press", "combo", c.String())
	return nil
}

// Release logs a key-up event.
func (l *LogOutput) Release(c keycode.Combo) error {
	l.logger.Info("hid release", "combo", c.String())
	return nil
}
