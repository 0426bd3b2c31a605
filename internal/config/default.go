package config

import "github.com/sweeney/macropad/internal/gpio"

// Defaults for the six-key pad.
const (
	defaultTickMS          = 1
	defaultDebounceSamples = 5
	defaultQueueSize       = 16
	defaultStepsPerDetent  = 4
	defaultBufferSize      = 1000
)

// DefaultConfig returns a fully-populated Config: the six-key pad with a
// rotary encoder, four layers and its macros.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Driver:    DriverGPIO,
			Chip:      "gpiochip0",
			ActiveLow: true,
			Keys:      append([]int(nil), gpio.DefaultPins.Keys...),
			Encoder: EncoderPins{
				A:      gpio.DefaultPins.EncA,
				B:      gpio.DefaultPins.EncB,
				Button: gpio.DefaultPins.EncButton,
			},
			Evdev: EvdevConfig{
				// KEY_1..KEY_6 and KEY_ENTER
				Keys:   []int{2, 3, 4, 5, 6, 7},
				Button: 28,
				Grab:   true,
			},
		},
		Scan: ScanConfig{
			TickMS:          defaultTickMS,
			DebounceSamples: defaultDebounceSamples,
			QueueSize:       defaultQueueSize,
		},
		Encoder: EncoderConfig{
			StepsPerDetent:  defaultStepsPerDetent,
			DebounceSamples: defaultDebounceSamples,
			CADLayer:        2,
			ZoomIn:          "LCTL(EQL)",
			ZoomOut:         "LCTL(MINS)",
			VolumeUp:        "VOLU",
			VolumeDown:      "VOLD",
		},
		Output: OutputConfig{
			Driver:   DriverGadget,
			Keyboard: "/dev/hidg0",
			Consumer: "/dev/hidg1",
		},
		Display: DisplayConfig{
			Driver: DriverLog,
			Baud:   9600,
			Width:  21,
		},
		Layers: []LayerConfig{
			{Name: "General", Keys: []string{
				"MACRO(toggle_output)", "MACRO(discord_mute)", "LGUI(LSFT(S))",
				"MPRV", "MNXT", "MPLY",
			}},
			{Name: "VS Code", Keys: []string{
				"LCTL(F5)", "MACRO(git_clone)", "LSFT(LALT(DOWN))",
				"LCTL(Z)", "LCTL(SLSH)", "MPLY",
			}},
			{Name: "OnShape", Keys: []string{
				"LSFT(N7)", "LSFT(S)", "LSFT(E)",
				"LSFT(X)", "LBRC", "MPLY",
			}},
			{Name: "Gaming", Keys: []string{
				"MACRO(toggle_output)", "MACRO(discord_mute)", "MACRO(discord_deafen)",
				"NO", "NO", "NO",
			}},
		},
		Macros: map[string][]string{
			"open_gmail": {"tap LCTL(T)", "text gmail.com", "tap ENTER"},
			"git_clone": {
				"tap LCTL(LSFT(P))",
				"text git: clone",
				"tap ENTER",
				"tap LCTL(V)",
				"tap ENTER",
			},
			"discord_mute":   {"tap LGUI(N1)", "tap LCTL(LSFT(M))", "tap LALT(TAB)"},
			"discord_deafen": {"tap LGUI(N1)", "tap LCTL(LSFT(D))", "tap LALT(TAB)"},
		},
		Toggles: map[string]ToggleConfig{
			// Walks the sound output menu; true selects the monitor next.
			"toggle_output": {
				Initial: true,
				Prefix: []string{
					"tap LGUI(B)", "delay 150",
					"tap RIGHT", "delay 150",
					"tap ENTER", "delay 250",
					"tap TAB", "delay 150",
					"tap ENTER", "delay 250",
				},
				WhenOn:  []string{"tap UP"},
				WhenOff: []string{"tap DOWN"},
				Suffix:  []string{"delay 200", "tap ENTER"},
			},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "macropad",
			ClientID:    "macropad",
			BufferSize:  defaultBufferSize,
			Heartbeat:   "15m",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
