package mqtt

import (
	"log/slog"

	"github.com/sweeney/macropad/internal/pad"
)

// LogPublisher logs events instead of publishing them. Used when no broker
// is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the pad event at debug level.
func (l *LogPublisher) Publish(event pad.Event) error {
	l.logger.Debug("event", "type", event.Type, "key", event.Key, "layer", event.Layer, "macro", event.Macro)
	return nil
}

// PublishSystem logs the system event.
func (l *LogPublisher) PublishSystem(event SystemEvent) error {
	l.logger.Info("system event", "event", event.Event, "reason", event.Reason)
	return nil
}

// Close does nothing.
func (l *LogPublisher) Close() error {
	return nil
}

// IsConnected is always false; there is no broker.
func (l *LogPublisher) IsConnected() bool {
	return false
}
