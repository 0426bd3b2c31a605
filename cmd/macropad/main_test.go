package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/macropad/internal/config"
	"github.com/sweeney/macropad/internal/display"
	"github.com/sweeney/macropad/internal/gpio"
	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keycode"
	"github.com/sweeney/macropad/internal/mqtt"
	"github.com/sweeney/macropad/internal/pad"
	"github.com/sweeney/macropad/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.IP != "" {
		t.Errorf("IP: got %q, want empty", info.IP)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if err != nil {
			t.Errorf("parseLogLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=1") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestLogWriter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.Driver = config.DriverLog
	if w, err := logWriter(cfg); err != nil || w != os.Stdout {
		t.Errorf("log display: got %v, %v; want stdout", w, err)
	}

	// The terminal display owns stdout
	cfg.Display.Driver = config.DriverTerminal
	if w, err := logWriter(cfg); err != nil || w != os.Stderr {
		t.Errorf("terminal display: got %v, %v; want stderr", w, err)
	}

	path := filepath.Join(t.TempDir(), "macropad.log")
	cfg.Logging.File = path
	w, err := logWriter(cfg)
	if err != nil {
		t.Fatalf("logWriter: %v", err)
	}
	setupLogger(w, slog.LevelInfo).Info("hello")
	w.(io.Closer).Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "msg=hello") {
		t.Errorf("log file missing record: %q", b)
	}

	cfg.Logging.File = filepath.Join(t.TempDir(), "missing", "macropad.log")
	if _, err := logWriter(cfg); err == nil {
		t.Error("expected error for unwritable log file")
	}
}

func TestLoadConfigDefaultsWithOverrides(t *testing.T) {
	broker := "tcp://10.0.0.5:1883"
	tick := 2
	cfg, err := loadConfig("", config.FlagOverrides{Broker: &broker, TickMS: &tick})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MQTT.Broker != broker {
		t.Errorf("Broker: got %q, want %q", cfg.MQTT.Broker, broker)
	}
	if cfg.Tick() != 2*time.Millisecond {
		t.Errorf("Tick: got %v, want 2ms", cfg.Tick())
	}
	if len(cfg.Layers) != 4 {
		t.Errorf("expected the built-in keymap, got %d layers", len(cfg.Layers))
	}
}

func TestLoadConfigFileAndValidation(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	os.WriteFile(good, []byte("http:\n  addr: \":9090\"\n"), 0o644)
	cfg, err := loadConfig(good, config.FlagOverrides{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("encoder:\n  cad_layer: 7\n"), 0o644)
	if _, err := loadConfig(bad, config.FlagOverrides{}); err == nil {
		t.Error("expected validation error for out-of-range CAD layer")
	}

	level := "loud"
	if _, err := loadConfig("", config.FlagOverrides{LogLevel: &level}); err == nil {
		t.Error("expected validation error for bad log level override")
	}
}

func TestFormatSample(t *testing.T) {
	s := gpio.Sample{Keys: []bool{false, true, false, false, false, true}, EncA: true, EncB: false, EncButton: true}
	want := "keys: 010001 enc_a: 1 enc_b: 0 button: 1"
	if got := formatSample(s); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// --- runLoop tests ---

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Only called from runLoop's goroutine.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// released is the idle input: no key pressed, encoder resting.
func released() gpio.Sample {
	return gpio.Sample{Keys: make([]bool, 6), EncA: true, EncB: true}
}

func pressed(pos int) gpio.Sample {
	s := released()
	s.Keys[pos] = true
	return s
}

// repeat returns n copies of sample.
func repeat(sample gpio.Sample, n int) []gpio.Sample {
	out := make([]gpio.Sample, n)
	for i := range out {
		out[i] = sample
		out[i].Keys = append([]bool(nil), sample.Keys...)
	}
	return out
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (gpio.Sample, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return gpio.Sample{}, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

type fixture struct {
	out     *hid.Fake
	display *display.Fake
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	daemon  *daemon
}

// newFixture builds a daemon around the built-in keymap with a two-sample
// debounce window.
func newFixture(t *testing.T, reader gpio.Reader, heartbeat time.Duration) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scan.DebounceSamples = 2
	cfg.Encoder.DebounceSamples = 1

	f := &fixture{
		out:     hid.NewFake(),
		display: display.NewFake(),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(t0, status.Config{}),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pc, err := cfg.PadConfig(f.out, f.display, logger, t0)
	if err != nil {
		t.Fatalf("PadConfig: %v", err)
	}
	p, err := pad.New(pc)
	if err != nil {
		t.Fatalf("pad.New: %v", err)
	}
	f.daemon = &daemon{
		reader:     reader,
		pad:        p,
		publisher:  f.pub,
		mqttStatus: f.pub,
		tracker:    f.tracker,
		heartbeat:  heartbeat,
		logger:     logger,
	}
	return f
}

// run drives runLoop for nTicks and then delivers signal.
func (f *fixture) run(t *testing.T, clock func() time.Time, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.daemon.runLoop(clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func TestRunLoopNoEventsAtBaseline(t *testing.T) {
	reader := gpio.NewFakeReader(repeat(released(), 4))
	f := newFixture(t, reader, 0)

	f.run(t, fakeClock(t0, time.Millisecond), 4, syscall.SIGTERM)

	if len(f.pub.Events) != 0 {
		t.Errorf("expected 0 pad events, got %v", f.pub.EventTypes())
	}
	if len(f.pub.SystemEvents) != 1 || f.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Fatalf("expected only SHUTDOWN, got %+v", f.pub.SystemEvents)
	}
	if !f.tracker.Snapshot().Pad.Baselined {
		t.Error("tracker should report the pad as baselined")
	}
}

func TestRunLoopKeyHeldAtStartupDoesNotFire(t *testing.T) {
	reader := gpio.NewFakeReader(repeat(pressed(5), 6))
	f := newFixture(t, reader, 0)

	f.run(t, fakeClock(t0, time.Millisecond), 6, syscall.SIGTERM)

	if len(f.pub.Events) != 0 {
		t.Errorf("held key should not fire, got %v", f.pub.EventTypes())
	}
	if len(f.out.Events) != 0 {
		t.Errorf("held key should not send HID reports, got %v", f.out.Events)
	}
}

func TestRunLoopKeyPressSendsHIDAndPublishes(t *testing.T) {
	samples := append(repeat(released(), 2), repeat(pressed(5), 2)...)
	samples = append(samples, repeat(released(), 2)...)
	reader := gpio.NewFakeReader(samples)
	f := newFixture(t, reader, 0)

	f.run(t, fakeClock(t0, time.Millisecond), len(samples), syscall.SIGTERM)

	// Key 5 on the General layer is play/pause
	taps := f.out.Taps()
	if len(taps) != 1 || taps[0] != keycode.Of(keycode.PlayPause) {
		t.Errorf("expected one MPLY tap, got %v", taps)
	}
	types := f.pub.EventTypes()
	if len(types) != 2 || types[0] != pad.EventKeyDown || types[1] != pad.EventKeyUp {
		t.Fatalf("expected KEY_DOWN, KEY_UP, got %v", types)
	}
	if f.pub.Events[0].Key != 5 {
		t.Errorf("Key: got %d, want 5", f.pub.Events[0].Key)
	}

	snap := f.tracker.Snapshot()
	if snap.Pad.Counts.KeyDown != 1 || snap.Pad.Counts.KeyUp != 1 {
		t.Errorf("tracker counts: got %+v", snap.Pad.Counts)
	}
	if len(snap.Recent) != 2 {
		t.Errorf("tracker recent events: got %d, want 2", len(snap.Recent))
	}
}

func TestRunLoopMacroRunsAcrossTicks(t *testing.T) {
	// Key 0 on the General layer is the toggle_output macro
	samples := append(repeat(released(), 2), repeat(pressed(0), 2)...)
	samples = append(samples, repeat(released(), 2)...)
	reader := gpio.NewFakeReader(samples)
	f := newFixture(t, reader, 0)

	// The toggle's delays add up to 1150ms
	f.run(t, fakeClock(t0, time.Millisecond), 1300, syscall.SIGTERM)

	var started, finished int
	for _, e := range f.pub.Events {
		switch e.Type {
		case pad.EventMacroStarted:
			started++
			if e.Macro != "toggle_output" {
				t.Errorf("Macro: got %q", e.Macro)
			}
		case pad.EventMacroFinished:
			finished++
		}
	}
	if started != 1 || finished != 1 {
		t.Errorf("expected one start and one finish, got %d and %d", started, finished)
	}
	taps := f.out.Taps()
	if len(taps) == 0 || taps[len(taps)-1] != keycode.Of(keycode.Enter) {
		t.Errorf("macro should end with ENTER, got %v", taps)
	}
	if on := f.tracker.Snapshot().Pad.Toggles["toggle_output"]; on {
		t.Error("toggle_output should have flipped to false")
	}
}

func TestRunLoopReadError(t *testing.T) {
	inner := gpio.NewFakeReader(repeat(released(), 2))
	reader := &faultReader{inner: inner, faultStart: 2, faultEnd: 4}
	f := newFixture(t, reader, 0)

	f.run(t, fakeClock(t0, time.Millisecond), 6, syscall.SIGTERM)

	if len(f.pub.SystemNamed("SHUTDOWN")) != 1 {
		t.Error("expected SHUTDOWN system event after read errors")
	}
	if f.daemon.readFailing {
		t.Error("reader recovered; readFailing should be cleared")
	}
}

func TestRunLoopReadErrorRecovery(t *testing.T) {
	// Faults during baseline delay it but do not prevent a later press
	samples := append(repeat(released(), 4), repeat(pressed(5), 2)...)
	inner := gpio.NewFakeReader(samples)
	reader := &faultReader{inner: inner, faultStart: 1, faultEnd: 3}
	f := newFixture(t, reader, 0)

	f.run(t, fakeClock(t0, time.Millisecond), 2+len(samples), syscall.SIGTERM)

	types := f.pub.EventTypes()
	if len(types) != 1 || types[0] != pad.EventKeyDown {
		t.Errorf("expected one KEY_DOWN after recovery, got %v", types)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// 5-minute clock step: the tracker baselines on the second tick (t+10m),
	// and the 15-minute heartbeat fires on the third (t+15m).
	reader := gpio.NewFakeReader(repeat(released(), 4))
	f := newFixture(t, reader, 15*time.Minute)

	f.run(t, fakeClock(t0.Add(5*time.Minute), 5*time.Minute), 4, syscall.SIGTERM)

	hbs := f.pub.SystemNamed("HEARTBEAT")
	if len(hbs) != 1 {
		t.Fatalf("expected 1 HEARTBEAT event, got %d", len(hbs))
	}
	var parsed status.StatusJSON
	if err := json.Unmarshal(hbs[0].RawPayload, &parsed); err != nil {
		t.Fatalf("heartbeat payload: %v", err)
	}
	if parsed.Status.Event != "HEARTBEAT" || parsed.Status.Label != "General" {
		t.Errorf("unexpected heartbeat status: %+v", parsed.Status)
	}
	if len(f.pub.SystemNamed("SHUTDOWN")) != 1 {
		t.Error("expected 1 SHUTDOWN event")
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "192.168.1.50")
	t.Setenv(envNetworkType, "ethernet")

	reader := gpio.NewFakeReader(repeat(released(), 4))
	f := newFixture(t, reader, 15*time.Minute)

	f.run(t, fakeClock(t0.Add(5*time.Minute), 5*time.Minute), 4, syscall.SIGTERM)

	hbs := f.pub.SystemNamed("HEARTBEAT")
	if len(hbs) != 1 {
		t.Fatalf("expected 1 HEARTBEAT event, got %d", len(hbs))
	}
	var parsed status.StatusJSON
	json.Unmarshal(hbs[0].RawPayload, &parsed)
	if parsed.Status.Network == nil || parsed.Status.Network.IP != "192.168.1.50" {
		t.Errorf("heartbeat network: got %+v", parsed.Status.Network)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	samples := append(repeat(released(), 2), repeat(pressed(5), 2)...)
	reader := gpio.NewFakeReader(samples)
	f := newFixture(t, reader, 0)
	f.pub.PublishError = errors.New("broker down")

	f.run(t, fakeClock(t0, time.Millisecond), len(samples), syscall.SIGTERM)

	// The key still reaches the host
	if taps := f.out.Taps(); len(taps) != 1 {
		t.Errorf("expected HID tap despite publish error, got %v", taps)
	}
	if len(f.pub.SystemNamed("SHUTDOWN")) != 1 {
		t.Error("expected SHUTDOWN after publish errors")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	f := newFixture(t, gpio.NewFakeReader(repeat(released(), 1)), 0)
	f.run(t, fakeClock(t0, time.Millisecond), 1, syscall.SIGINT)

	sd := f.pub.SystemNamed("SHUTDOWN")
	if len(sd) != 1 {
		t.Fatalf("expected 1 SHUTDOWN, got %d", len(sd))
	}
	if sd[0].Reason != "SIGINT" || !sd[0].Retained {
		t.Errorf("SHUTDOWN: got reason %q retained %v", sd[0].Reason, sd[0].Retained)
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	f := newFixture(t, gpio.NewFakeReader(repeat(released(), 1)), 0)
	f.pub.Connected = true
	f.run(t, fakeClock(t0, time.Millisecond), 1, syscall.SIGTERM)

	sd := f.pub.SystemNamed("SHUTDOWN")
	if len(sd) != 1 {
		t.Fatalf("expected 1 SHUTDOWN, got %d", len(sd))
	}
	if sd[0].Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", sd[0].Reason)
	}
	var parsed status.StatusJSON
	if err := json.Unmarshal(sd[0].RawPayload, &parsed); err != nil {
		t.Fatalf("shutdown payload: %v", err)
	}
	if parsed.Status.Reason != "SIGTERM" || !parsed.Status.MQTT.Connected {
		t.Errorf("unexpected shutdown status: %+v", parsed.Status)
	}
}
