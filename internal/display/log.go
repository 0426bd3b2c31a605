package display

import "log/slog"

// Log writes shown lines to a logger. It is the default when no physical
// display is configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log display. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// ShowText logs line.
func (l *Log) ShowText(line string) error {
	l.logger.Info("display", "text", line)
	return nil
}

// Close does nothing.
func (l *Log) Close() error {
	return nil
}
