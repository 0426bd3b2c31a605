package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/macropad/internal/dispatch"
	"github.com/sweeney/macropad/internal/display"
	"github.com/sweeney/macropad/internal/encoder"
	"github.com/sweeney/macropad/internal/gpio"
	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keycode"
	"github.com/sweeney/macropad/internal/keymap"
	"github.com/sweeney/macropad/internal/macro"
	"github.com/sweeney/macropad/internal/pad"
)

// ParseStep parses one macro step expression:
//
//	tap <key>      press and release
//	press <key>    press and hold
//	release <key>  release a held key
//	delay <ms>     wait at least ms milliseconds
//	text <string>  tap each character using the US layout
//
// text expands to one tap per character, so a single expression may yield
// several steps.
func ParseStep(expr string) ([]macro.Step, error) {
	expr = strings.TrimSpace(expr)
	verb, arg, _ := strings.Cut(expr, " ")
	verb = strings.ToLower(verb)

	switch verb {
	case "tap", "press", "release":
		c, err := keycode.Parse(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", verb, err)
		}
		switch verb {
		case "tap":
			return []macro.Step{macro.Tap(c)}, nil
		case "press":
			return []macro.Step{macro.Press(c)}, nil
		default:
			return []macro.Step{macro.Release(c)}, nil
		}

	case "delay":
		ms, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("delay: %q is not a non-negative number of milliseconds", arg)
		}
		return []macro.Step{macro.Delay(time.Duration(ms) * time.Millisecond)}, nil

	case "text":
		// Only the single separator after the verb is dropped
		steps := make([]macro.Step, 0, len(arg))
		for _, r := range arg {
			c, ok := keycode.ForRune(r)
			if !ok {
				return nil, fmt.Errorf("text: no key for %q", r)
			}
			steps = append(steps, macro.Tap(c))
		}
		return steps, nil
	}
	return nil, fmt.Errorf("unknown step %q", expr)
}

// ParseSteps parses a list of step expressions into one step sequence.
func ParseSteps(exprs []string) ([]macro.Step, error) {
	var steps []macro.Step
	for i, expr := range exprs {
		s, err := ParseStep(expr)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s...)
	}
	return steps, nil
}

// MatrixSize returns the number of key positions for the selected input
// driver.
func (c *Config) MatrixSize() int {
	if c.Input.Driver == DriverEvdev {
		return len(c.Input.Evdev.Keys)
	}
	return len(c.Input.Keys)
}

// Keymap parses the layers into keymap actions.
func (c *Config) Keymap() ([]keymap.Layer, error) {
	layers := make([]keymap.Layer, len(c.Layers))
	for i, l := range c.Layers {
		actions := make([]keymap.Action, len(l.Keys))
		for j, expr := range l.Keys {
			a, err := keymap.ParseAction(expr)
			if err != nil {
				return nil, invalid(fmt.Sprintf("layers[%d].keys[%d]", i, j), "%v", err)
			}
			actions[j] = a
		}
		layers[i] = keymap.Layer{Name: l.Name, Actions: actions}
	}
	return layers, nil
}

// MacroSet parses the static macros.
func (c *Config) MacroSet() (map[string]macro.Macro, error) {
	out := make(map[string]macro.Macro, len(c.Macros))
	for name, exprs := range c.Macros {
		steps, err := ParseSteps(exprs)
		if err != nil {
			return nil, invalid("macros."+name, "%v", err)
		}
		out[name] = macro.Macro{Name: name, Steps: steps}
	}
	return out, nil
}

// ToggleSet parses the toggle macros, sorted by name.
func (c *Config) ToggleSet() ([]dispatch.Toggle, error) {
	names := make([]string, 0, len(c.Toggles))
	for name := range c.Toggles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]dispatch.Toggle, 0, len(names))
	for _, name := range names {
		tc := c.Toggles[name]
		t := dispatch.Toggle{ID: name, Initial: tc.Initial}
		for _, part := range []struct {
			field string
			exprs []string
			dst   *[]macro.Step
		}{
			{"prefix", tc.Prefix, &t.Prefix},
			{"when_on", tc.WhenOn, &t.WhenOn},
			{"when_off", tc.WhenOff, &t.WhenOff},
			{"suffix", tc.Suffix, &t.Suffix},
		} {
			steps, err := ParseSteps(part.exprs)
			if err != nil {
				return nil, invalid("toggles."+name+"."+part.field, "%v", err)
			}
			*part.dst = steps
		}
		out = append(out, t)
	}
	return out, nil
}

// TrackerConfig returns the encoder decoding settings.
func (c *Config) TrackerConfig() encoder.TrackerConfig {
	return encoder.TrackerConfig{
		StepsPerDetent:  c.Encoder.StepsPerDetent,
		Inverted:        c.Encoder.Inverted,
		DebounceSamples: c.Encoder.DebounceSamples,
	}
}

// MachineConfig parses the keys an idle turn sends.
func (c *Config) MachineConfig() (encoder.MachineConfig, error) {
	mc := encoder.MachineConfig{CADLayer: c.Encoder.CADLayer}
	for _, k := range []struct {
		field string
		expr  string
		dst   *keycode.Combo
	}{
		{"zoom_in", c.Encoder.ZoomIn, &mc.ZoomIn},
		{"zoom_out", c.Encoder.ZoomOut, &mc.ZoomOut},
		{"volume_up", c.Encoder.VolumeUp, &mc.VolumeUp},
		{"volume_down", c.Encoder.VolumeDown, &mc.VolumeDown},
	} {
		combo, err := keycode.Parse(k.expr)
		if err != nil {
			return encoder.MachineConfig{}, invalid("encoder."+k.field, "%v", err)
		}
		*k.dst = combo
	}
	return mc, nil
}

// GPIOConfig returns the character device reader settings.
func (c *Config) GPIOConfig() gpio.RealConfig {
	return gpio.RealConfig{
		Chip: c.Input.Chip,
		Pins: gpio.Pins{
			Keys:      c.Input.Keys,
			EncA:      c.Input.Encoder.A,
			EncB:      c.Input.Encoder.B,
			EncButton: c.Input.Encoder.Button,
		},
		ActiveLow: c.Input.ActiveLow,
	}
}

// EvdevConfig returns the evdev reader settings.
func (c *Config) EvdevConfig(logger *slog.Logger) gpio.EvdevConfig {
	return gpio.EvdevConfig{
		Device:    c.Input.Evdev.Device,
		Keys:      c.Input.Evdev.Keys,
		EncButton: c.Input.Evdev.Button,
		Grab:      c.Input.Evdev.Grab,
		Logger:    logger,
	}
}

// PadConfig parses everything the pipeline needs and attaches the given
// output devices.
func (c *Config) PadConfig(out hid.Output, disp display.Display, logger *slog.Logger, start time.Time) (pad.Config, error) {
	layers, err := c.Keymap()
	if err != nil {
		return pad.Config{}, err
	}
	macros, err := c.MacroSet()
	if err != nil {
		return pad.Config{}, err
	}
	toggles, err := c.ToggleSet()
	if err != nil {
		return pad.Config{}, err
	}
	machine, err := c.MachineConfig()
	if err != nil {
		return pad.Config{}, err
	}
	return pad.Config{
		Keys:            c.MatrixSize(),
		Layers:          layers,
		Macros:          macros,
		Toggles:         toggles,
		DebounceSamples: c.Scan.DebounceSamples,
		Tracker:         c.TrackerConfig(),
		Machine:         machine,
		Player:          macro.Options{MinTapWidth: time.Duration(c.Output.MinTapMS) * time.Millisecond},
		QueueSize:       c.Scan.QueueSize,
		Output:          out,
		Display:         disp,
		Logger:          logger,
		StartTime:       start,
	}, nil
}
