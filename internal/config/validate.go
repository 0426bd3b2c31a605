package config

import (
	"fmt"
	"strings"

	"github.com/sweeney/macropad/internal/keymap"
)

// invalid returns a *keymap.ConfigError for field.
func invalid(field, format string, args ...any) error {
	return &keymap.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks config invariants and returns a *keymap.ConfigError
// naming the first offending field. It is intended to be called after
// defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Input
	switch c.Input.Driver {
	case DriverGPIO:
		if len(c.Input.Keys) == 0 {
			return invalid("input.keys", "must not be empty")
		}
	case DriverEvdev:
		if c.Input.Evdev.Device == "" {
			return invalid("input.evdev.device", "must not be empty")
		}
		if len(c.Input.Evdev.Keys) == 0 {
			return invalid("input.evdev.keys", "must not be empty")
		}
	default:
		return invalid("input.driver", "must be %q or %q", DriverGPIO, DriverEvdev)
	}

	// Scan
	if c.Scan.TickMS <= 0 || c.Scan.TickMS > 1000 {
		return invalid("scan.tick_ms", "must be between 1 and 1000")
	}
	if c.Scan.DebounceSamples < 1 {
		return invalid("scan.debounce_samples", "must be >= 1")
	}
	if c.Scan.QueueSize < 1 {
		return invalid("scan.queue_size", "must be >= 1")
	}

	// Layers
	if len(c.Layers) == 0 {
		return invalid("layers", "at least one layer is required")
	}
	size := c.MatrixSize()
	for i, l := range c.Layers {
		if len(l.Keys) != size {
			return invalid(fmt.Sprintf("layers[%d] (%s)", i, l.Name), "has %d keys, input has %d", len(l.Keys), size)
		}
	}
	layers, err := c.Keymap()
	if err != nil {
		return err
	}

	// Macros
	if _, err := c.MacroSet(); err != nil {
		return err
	}
	if _, err := c.ToggleSet(); err != nil {
		return err
	}
	for name := range c.Toggles {
		if _, dup := c.Macros[name]; dup {
			return invalid("toggles."+name, "also defined under macros")
		}
	}
	for i, l := range layers {
		for j, a := range l.Actions {
			switch a := a.(type) {
			case keymap.MacroRef:
				_, isMacro := c.Macros[a.ID]
				_, isToggle := c.Toggles[a.ID]
				if !isMacro && !isToggle {
					return invalid(fmt.Sprintf("layers[%d].keys[%d]", i, j), "unknown macro %q", a.ID)
				}
			case keymap.LayerSelect:
				if a.Index < 0 || a.Index >= len(layers) {
					return invalid(fmt.Sprintf("layers[%d].keys[%d]", i, j), "layer %d does not exist", a.Index)
				}
			}
		}
	}

	// Encoder
	if c.Encoder.StepsPerDetent < 1 {
		return invalid("encoder.steps_per_detent", "must be >= 1")
	}
	if c.Encoder.DebounceSamples < 1 {
		return invalid("encoder.debounce_samples", "must be >= 1")
	}
	if c.Encoder.CADLayer < -1 || c.Encoder.CADLayer >= len(c.Layers) {
		return invalid("encoder.cad_layer", "must be -1 or an existing layer")
	}
	if _, err := c.MachineConfig(); err != nil {
		return err
	}

	// Output
	switch c.Output.Driver {
	case DriverGadget:
		if c.Output.Keyboard == "" {
			return invalid("output.keyboard", "must not be empty")
		}
	case DriverLog:
	default:
		return invalid("output.driver", "must be %q or %q", DriverGadget, DriverLog)
	}
	if c.Output.MinTapMS < 0 {
		return invalid("output.min_tap_ms", "must be >= 0")
	}

	// Display
	switch c.Display.Driver {
	case DriverSerial:
		if c.Display.Device == "" {
			return invalid("display.device", "must not be empty for the serial driver")
		}
	case DriverLog, DriverTerminal, DriverNone:
	default:
		return invalid("display.driver", "must be one of serial, terminal, log, none")
	}

	// MQTT
	if c.MQTT.Broker != "" {
		if c.MQTT.TopicPrefix == "" {
			return invalid("mqtt.topic_prefix", "must not be empty")
		}
		if c.MQTT.BufferSize < 1 {
			return invalid("mqtt.buffer_size", "must be >= 1")
		}
	}
	if d, err := parseDuration(c.MQTT.Heartbeat); err != nil || d < 0 {
		return invalid("mqtt.heartbeat", "%q is not a valid duration", c.MQTT.Heartbeat)
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "error", "warn", "warning", "info", "debug":
	default:
		return invalid("logging.level", "must be one of error, warn, info, debug")
	}

	return nil
}
