package mqtt

import (
	"github.com/sweeney/macropad/internal/pad"
)

// FakePublisher records what the pad would have sent to the broker. Each
// recorded event keeps the exact payload bytes next to it, so tests can
// check both the pad's behaviour and the wire format.
type FakePublisher struct {
	Events   []pad.Event
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError and PublishSystemError, when set, fail the call and
	// nothing is recorded.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the pad event and its payload.
func (f *FakePublisher) Publish(event pad.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the lifecycle event and its payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// EventTypes returns the types of the published pad events, in order.
func (f *FakePublisher) EventTypes() []pad.EventType {
	out := make([]pad.EventType, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

// OfType returns the published pad events of the given types, in order.
func (f *FakePublisher) OfType(types ...pad.EventType) []pad.Event {
	var out []pad.Event
	for _, e := range f.Events {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// LastPayload returns the payload of the most recent event of type t, or
// nil if none was published.
func (f *FakePublisher) LastPayload(t pad.EventType) []byte {
	for i := len(f.Events) - 1; i >= 0; i-- {
		if f.Events[i].Type == t {
			return f.Payloads[i]
		}
	}
	return nil
}

// SystemNamed returns the lifecycle events named name (STARTUP, HEARTBEAT,
// SHUTDOWN), in order.
func (f *FakePublisher) SystemNamed(name string) []SystemEvent {
	var out []SystemEvent
	for _, e := range f.SystemEvents {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded and configured.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
