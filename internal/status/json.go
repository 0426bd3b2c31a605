package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/macropad/internal/pad"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Layer         int             `json:"layer"`
	Label         string          `json:"label"`
	Layers        []string        `json:"layers"`
	Mode          string          `json:"mode"`
	Selected      int             `json:"selected"`
	Macro         *MacroJSON      `json:"macro,omitempty"`
	Toggles       map[string]bool `json:"toggles,omitempty"`
	Ready         bool            `json:"ready"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"event_counts"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
	Macros        []string        `json:"macros,omitempty"`
	Recent        []EventJSON     `json:"recent_events,omitempty"`
}

// MacroJSON describes the macro currently playing.
type MacroJSON struct {
	Name  string `json:"name"`
	Step  int    `json:"step"`
	Steps int    `json:"steps"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	KeyDown       int `json:"key_down"`
	KeyUp         int `json:"key_up"`
	Turns         int `json:"encoder_turns"`
	LayerChanges  int `json:"layer_changes"`
	MacroStarts   int `json:"macro_starts"`
	MacroBusy     int `json:"macro_busy"`
	QueueDropped  int `json:"queue_dropped"`
	DispatchError int `json:"dispatch_errors"`
}

// EventJSON is a compact rendering of a recent pad event.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Key       *int   `json:"key,omitempty"`
	Action    string `json:"action,omitempty"`
	Label     string `json:"label,omitempty"`
	Macro     string `json:"macro,omitempty"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs          int64  `json:"tick_ms"`
	DebounceSamples int    `json:"debounce_samples"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Broker          string `json:"broker"`
	TopicPrefix     string `json:"topic_prefix"`
	HTTPAddr        string `json:"http_addr"`
	InputDriver     string `json:"input"`
	OutputDriver    string `json:"output"`
	DisplayDriver   string `json:"display"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Pad.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	layers := snap.Pad.Labels
	if layers == nil {
		layers = []string{}
	}

	inner := StatusInner{
		Layer:         snap.Pad.Layer,
		Label:         snap.Pad.Label,
		Layers:        layers,
		Mode:          mode,
		Selected:      snap.Pad.Selected,
		Toggles:       snap.Pad.Toggles,
		Ready:         snap.Pad.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Buffered:  snap.MQTTBuffered,
		},
		Counts: CountsJSON{
			KeyDown:       snap.Pad.Counts.KeyDown,
			KeyUp:         snap.Pad.Counts.KeyUp,
			Turns:         snap.Pad.Counts.Turns,
			LayerChanges:  snap.Pad.Counts.LayerChanges,
			MacroStarts:   snap.Pad.Counts.MacroStarts,
			MacroBusy:     snap.Pad.Counts.MacroBusy,
			QueueDropped:  snap.Pad.Counts.QueueDropped,
			DispatchError: snap.Pad.Counts.DispatchError,
		},
		Config: ConfigJSON{
			TickMs:          snap.Config.TickMs,
			DebounceSamples: snap.Config.DebounceSamples,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Broker:          snap.Config.Broker,
			TopicPrefix:     snap.Config.TopicPrefix,
			HTTPAddr:        snap.Config.HTTPAddr,
			InputDriver:     snap.Config.InputDriver,
			OutputDriver:    snap.Config.OutputDriver,
			DisplayDriver:   snap.Config.DisplayDriver,
		},
	}
	if snap.Pad.Macro != "" {
		inner.Macro = &MacroJSON{
			Name:  snap.Pad.Macro,
			Step:  snap.Pad.MacroStep,
			Steps: snap.Pad.MacroSteps,
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

func buildRecent(events []pad.Event) []EventJSON {
	if len(events) == 0 {
		return nil
	}
	out := make([]EventJSON, 0, len(events))
	// Newest first
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		ej := EventJSON{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:     string(e.Type),
			Action:    e.Action,
			Label:     e.Label,
			Macro:     e.Macro,
		}
		if e.Key >= 0 {
			key := e.Key
			ej.Key = &key
		}
		out = append(out, ej)
	}
	return out
}

// WebView returns the status details shown by the web endpoints, including
// the macro list and recent events.
func WebView(snap Snapshot) StatusInner {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	inner.Macros = snap.Macros
	inner.Recent = buildRecent(snap.Recent)
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: WebView(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
