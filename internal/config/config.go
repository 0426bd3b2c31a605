// Package config loads the macropad's YAML configuration: the input lines,
// the keymap layers and macros, the encoder, HID output, display, MQTT and
// HTTP settings.
//
// Keep defaults and validation centralized so the rest of the code can
// assume a well-formed config. The file is read once at startup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Input drivers.
const (
	DriverGPIO  = "gpio"
	DriverEvdev = "evdev"
)

// Output and display drivers.
const (
	DriverGadget   = "gadget"
	DriverLog      = "log"
	DriverSerial   = "serial"
	DriverTerminal = "terminal"
	DriverNone     = "none"
)

// Config is the top-level YAML configuration for the macropad daemon.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Scan    ScanConfig    `yaml:"scan"`
	Encoder EncoderConfig `yaml:"encoder"`
	Output  OutputConfig  `yaml:"output"`
	Display DisplayConfig `yaml:"display"`

	// Layers are ordered; layer 0 is active at startup.
	Layers  []LayerConfig           `yaml:"layers"`
	Macros  map[string][]string     `yaml:"macros"`
	Toggles map[string]ToggleConfig `yaml:"toggles"`

	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

type InputConfig struct {
	Driver string `yaml:"driver"`
	Chip   string `yaml:"chip"`
	// ActiveLow: switches pull the line to ground when pressed.
	ActiveLow bool        `yaml:"active_low"`
	Keys      []int       `yaml:"keys"`
	Encoder   EncoderPins `yaml:"encoder"`
	Evdev     EvdevConfig `yaml:"evdev"`
}

// EncoderPins are GPIO offsets; -1 marks an unwired line.
type EncoderPins struct {
	A      int `yaml:"a"`
	B      int `yaml:"b"`
	Button int `yaml:"button"`
}

type EvdevConfig struct {
	Device string `yaml:"device"`
	// Keys are evdev key codes, one per keymap position.
	Keys   []int `yaml:"keys"`
	Button int   `yaml:"button"`
	Grab   bool  `yaml:"grab"`
}

type ScanConfig struct {
	TickMS          int `yaml:"tick_ms"`
	DebounceSamples int `yaml:"debounce_samples"`
	QueueSize       int `yaml:"queue_size"`
}

type EncoderConfig struct {
	StepsPerDetent  int  `yaml:"steps_per_detent"`
	Inverted        bool `yaml:"inverted"`
	DebounceSamples int  `yaml:"debounce_samples"`
	// CADLayer is the layer where turns zoom; -1 disables zoom.
	CADLayer   int    `yaml:"cad_layer"`
	ZoomIn     string `yaml:"zoom_in"`
	ZoomOut    string `yaml:"zoom_out"`
	VolumeUp   string `yaml:"volume_up"`
	VolumeDown string `yaml:"volume_down"`
}

type OutputConfig struct {
	Driver   string `yaml:"driver"`
	Keyboard string `yaml:"keyboard"`
	Consumer string `yaml:"consumer"`
	// MinTapMS holds tapped keys for at least this long; 0 releases in the
	// same tick.
	MinTapMS int `yaml:"min_tap_ms"`
}

type DisplayConfig struct {
	Driver string `yaml:"driver"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	Width  int    `yaml:"width"`
}

type LayerConfig struct {
	Name string   `yaml:"name"`
	Keys []string `yaml:"keys"`
}

// ToggleConfig is a macro whose middle section alternates on every start.
type ToggleConfig struct {
	Initial bool     `yaml:"initial"`
	Prefix  []string `yaml:"prefix"`
	WhenOn  []string `yaml:"when_on"`
	WhenOff []string `yaml:"when_off"`
	Suffix  []string `yaml:"suffix"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id"`
	BufferSize  int    `yaml:"buffer_size"`
	// Heartbeat interval as a Go duration; "0" disables.
	Heartbeat string `yaml:"heartbeat"`
}

type HTTPConfig struct {
	// Addr is the listen address; empty disables the status server.
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives logs when set. Otherwise logs go to stdout, or to
	// stderr when the terminal display owns the screen.
	File string `yaml:"file"`
}

// Load reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos). A file that sets layers
// replaces the default keymap entirely; macros and toggles are merged by
// name.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML config bytes on top of DefaultConfig.
func Parse(b []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides are applied on top of a loaded config. Each override is only
// applied if its pointer is non-nil.
type FlagOverrides struct {
	Broker   *string
	HTTPAddr *string
	LogLevel *string
	TickMS   *int
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Broker != nil {
		cfg.MQTT.Broker = *o.Broker
	}
	if o.HTTPAddr != nil {
		cfg.HTTP.Addr = *o.HTTPAddr
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.TickMS != nil {
		cfg.Scan.TickMS = *o.TickMS
	}
}

// Tick returns the scan period.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Scan.TickMS) * time.Millisecond
}

// HeartbeatInterval parses mqtt.heartbeat. Validate has already checked it.
func (c *Config) HeartbeatInterval() time.Duration {
	d, _ := parseDuration(c.MQTT.Heartbeat)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
