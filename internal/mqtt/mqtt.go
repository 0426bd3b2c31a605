// Package mqtt publishes pad events and system lifecycle events to an MQTT
// broker, with a log-only and a fake publisher for running without one.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/macropad/internal/pad"
)

// Topic suffixes under the configured prefix.
const (
	SuffixEvents = "events"
	SuffixSystem = "system"
)

// Topics are the full topic names for a prefix.
type Topics struct {
	Events string
	System string
}

// TopicsFor returns the topics under prefix, e.g. "macropad/events".
func TopicsFor(prefix string) Topics {
	return Topics{
		Events: prefix + "/" + SuffixEvents,
		System: prefix + "/" + SuffixSystem,
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a pad event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event pad.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Macropad EventPayload `json:"macropad"`
}

// EventPayload contains the pad event details.
type EventPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Key       *int   `json:"key,omitempty"`
	Action    string `json:"action,omitempty"`
	Layer     int    `json:"layer"`
	Label     string `json:"label,omitempty"`
	Macro     string `json:"macro,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// FormatPayload creates the JSON payload for a pad event.
func FormatPayload(event pad.Event) ([]byte, error) {
	p := EventPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Action:    event.Action,
		Layer:     event.Layer,
		Label:     event.Label,
		Macro:     event.Macro,
	}
	if event.Key >= 0 {
		key := event.Key
		p.Key = &key
	}
	if event.Type == pad.EventEncoderTurn {
		p.Direction = "ccw"
		if event.Clockwise {
			p.Direction = "cw"
		}
	}
	return json.Marshal(Payload{Macropad: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
