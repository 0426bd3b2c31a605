// Package status provides a thread-safe status tracker for the macropad daemon.
// It is read by the HTTP handlers, the websocket hub, and MQTT system events.
package status

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sweeney/macropad/internal/pad"
)

// RecentLimit is the number of pad events kept for display.
const RecentLimit = 20

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs          int64
	DebounceSamples int
	HeartbeatMs     int64
	Broker          string
	TopicPrefix     string
	HTTPAddr        string
	InputDriver     string
	OutputDriver    string
	DisplayDriver   string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Pad           pad.State
	Macros        []string
	Recent        []pad.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTBuffered  int
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the latest pad state. Called from runLoop on every tick.
func (t *Tracker) Update(state pad.State) {
	t.mu.Lock()
	t.snap.Pad = state
	t.mu.Unlock()
}

// SetMacros sets the list of playable macro names.
func (t *Tracker) SetMacros(ids []string) {
	t.mu.Lock()
	t.snap.Macros = slices.Clone(ids)
	t.mu.Unlock()
}

// Record appends events to the recent list, keeping the newest RecentLimit.
func (t *Tracker) Record(events []pad.Event) {
	if len(events) == 0 {
		return
	}
	t.mu.Lock()
	recent := append(t.snap.Recent, events...)
	if n := len(recent) - RecentLimit; n > 0 {
		recent = slices.Clone(recent[n:])
	}
	t.snap.Recent = recent
	t.mu.Unlock()
}

// SetMQTT sets the MQTT connection status and the number of buffered messages.
func (t *Tracker) SetMQTT(connected bool, buffered int) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.snap.MQTTBuffered = buffered
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Pad.Labels = slices.Clone(t.snap.Pad.Labels)
	s.Pad.Toggles = maps.Clone(t.snap.Pad.Toggles)
	s.Macros = slices.Clone(t.snap.Macros)
	s.Recent = slices.Clone(t.snap.Recent)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
