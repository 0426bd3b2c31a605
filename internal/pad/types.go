package pad

import (
	"time"

	"github.com/sweeney/macropad/internal/encoder"
)

// EventType is the kind of pad event.
type EventType string

const (
	EventKeyDown       EventType = "KEY_DOWN"
	EventKeyUp         EventType = "KEY_UP"
	EventLayerChanged  EventType = "LAYER_CHANGED"
	EventEncoderTurn   EventType = "ENCODER_TURN"
	EventMacroStarted  EventType = "MACRO_STARTED"
	EventMacroFinished EventType = "MACRO_FINISHED"
	EventMacroBusy     EventType = "MACRO_BUSY"
	EventScrollStart   EventType = "SCROLL_START"
	EventScrollEnd     EventType = "SCROLL_END"
)

// Event is something observable that happened during a tick. Fields that do
// not apply to the event type are left at their zero value, except Key which
// is -1 when no key position is involved.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Key       int
	Action    string
	Layer     int
	Label     string
	Macro     string
	Clockwise bool
}

// Counts tracks the number of each event type since startup.
type Counts struct {
	KeyDown       int
	KeyUp         int
	Turns         int
	LayerChanges  int
	MacroStarts   int
	MacroBusy     int
	QueueDropped  int
	DispatchError int
}

// State is a value snapshot of the pad for status reporting.
type State struct {
	Layer      int
	Label      string
	Labels     []string
	Mode       encoder.Mode
	Selected   int
	Macro      string
	MacroStep  int
	MacroSteps int
	Toggles    map[string]bool
	Baselined  bool
	Counts     Counts
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Layer     int
	Label     string
	Counts    Counts
}
