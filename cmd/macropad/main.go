// Command macropad scans a macro keypad, sends USB HID reports to the host,
// and publishes pad activity to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/macropad/internal/config"
	"github.com/sweeney/macropad/internal/display"
	"github.com/sweeney/macropad/internal/gpio"
	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/mqtt"
	"github.com/sweeney/macropad/internal/pad"
	"github.com/sweeney/macropad/internal/status"
	"github.com/sweeney/macropad/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (empty uses the built-in keymap)")
	broker := flag.String("broker", "", "MQTT broker address, overrides config (\"\" logs events instead)")
	httpAddr := flag.String("http", "", "HTTP status address, overrides config (\"\" disables)")
	logLevel := flag.String("log-level", "", "Log level: error, warn, info, debug (overrides config)")
	tickMS := flag.Int("tick", 0, "Scan tick in milliseconds (overrides config)")
	printState := flag.Bool("print-state", false, "Print current input levels and exit")
	flag.Parse()

	// Only flags given on the command line override the config file
	var overrides config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "broker":
			overrides.Broker = broker
		case "http":
			overrides.HTTPAddr = httpAddr
		case "log-level":
			overrides.LogLevel = logLevel
		case "tick":
			overrides.TickMS = tickMS
		}
	})

	cfg, err := loadConfig(*configPath, overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logOut, err := logWriter(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logOut, level)
	slog.SetDefault(logger)

	if err := run(cfg, *printState, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file (or the defaults), applies flag overrides
// and validates the result.
func loadConfig(path string, overrides config.FlagOverrides) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg config.Config, printState bool, logger *slog.Logger) error {
	reader, err := openReader(cfg, logger)
	if err != nil {
		return fmt.Errorf("init input: %w", err)
	}
	defer reader.Close()

	if printState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		fmt.Println(formatSample(s))
		return nil
	}

	out, err := openOutput(cfg, logger)
	if err != nil {
		return fmt.Errorf("init hid output: %w", err)
	}
	if c, ok := out.(interface{ Close() error }); ok {
		defer c.Close()
	}

	disp, err := openDisplay(cfg, logger)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	if c, ok := disp.(display.Closer); ok {
		defer c.Close()
	}

	start := time.Now()
	padCfg, err := cfg.PadConfig(out, disp, logger, start)
	if err != nil {
		return err
	}
	p, err := pad.New(padCfg)
	if err != nil {
		return fmt.Errorf("build pad: %w", err)
	}

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(start, status.Config{
		TickMs:          cfg.Tick().Milliseconds(),
		DebounceSamples: cfg.Scan.DebounceSamples,
		HeartbeatMs:     cfg.HeartbeatInterval().Milliseconds(),
		Broker:          cfg.MQTT.Broker,
		TopicPrefix:     cfg.MQTT.TopicPrefix,
		HTTPAddr:        cfg.HTTP.Addr,
		InputDriver:     cfg.Input.Driver,
		OutputDriver:    cfg.Output.Driver,
		DisplayDriver:   cfg.Display.Driver,
	})
	tracker.Update(p.State())
	tracker.SetMacros(p.MacroIDs())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warn("failed to publish startup event", "error", err)
	} else {
		logger.Info("published startup event")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var hub *web.Hub
	if cfg.HTTP.Addr != "" {
		hub = web.NewHub(logger)
		srv := web.New(cfg.HTTP.Addr, tracker, hub, logger)
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
		g.Go(func() error {
			// The status page is optional; a bind failure is logged and the pad keeps running
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	logger.Info("started",
		"input", cfg.Input.Driver,
		"output", cfg.Output.Driver,
		"display", cfg.Display.Driver,
		"tick", cfg.Tick(),
		"debounce_samples", cfg.Scan.DebounceSamples,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.HeartbeatInterval(),
		"layers", len(cfg.Layers),
	)

	ticker := time.NewTicker(cfg.Tick())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		reader:     reader,
		pad:        p,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		hub:        hub,
		heartbeat:  cfg.HeartbeatInterval(),
		logger:     logger,
	}
	g.Go(func() error {
		defer cancel()
		return d.runLoop(time.Now, ticker.C, sigCh)
	})
	return g.Wait()
}

func openReader(cfg config.Config, logger *slog.Logger) (gpio.Reader, error) {
	if cfg.Input.Driver == config.DriverEvdev {
		return gpio.NewEvdevReader(cfg.EvdevConfig(logger))
	}
	return gpio.NewRealReader(cfg.GPIOConfig())
}

func openOutput(cfg config.Config, logger *slog.Logger) (hid.Output, error) {
	if cfg.Output.Driver == config.DriverLog {
		return hid.NewLogOutput(logger), nil
	}
	return hid.OpenGadget(cfg.Output.Keyboard, cfg.Output.Consumer)
}

// openDisplay returns a nil Display for the "none" driver.
func openDisplay(cfg config.Config, logger *slog.Logger) (display.Display, error) {
	switch cfg.Display.Driver {
	case config.DriverSerial:
		return display.OpenSerial(display.SerialConfig{
			Device: cfg.Display.Device,
			Baud:   cfg.Display.Baud,
			Width:  cfg.Display.Width,
		})
	case config.DriverTerminal:
		return display.OpenTerminal("macropad", interruptSelf)
	case config.DriverNone:
		return nil, nil
	default:
		return display.NewLog(logger), nil
	}
}

// interruptSelf sends SIGINT to this process. The terminal display reads
// Ctrl-C as a key, so it goes through the usual signal shutdown.
func interruptSelf() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(os.Interrupt)
}

// publisherStatus is a publisher that also reports its connection state.
type publisherStatus interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

func openPublisher(cfg config.Config, logger *slog.Logger) (publisherStatus, error) {
	if cfg.MQTT.Broker == "" {
		return mqtt.NewLogPublisher(logger), nil
	}
	return mqtt.NewRealPublisher(mqtt.Config{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		BufferSize:  cfg.MQTT.BufferSize,
		Logger:      logger,
	})
}

// daemon is the state the run loop works on.
type daemon struct {
	reader     gpio.Reader
	pad        *pad.Pad
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	hub        *web.Hub
	heartbeat  time.Duration
	logger     *slog.Logger

	readFailing bool
}

// runLoop drives the pad from tick until a signal arrives. It never returns
// an error for per-tick failures; those are logged and the loop carries on.
func (d *daemon) runLoop(now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			d.shutdown(s, now())
			return nil

		case <-tick:
			d.tick(now())
		}
	}
}

func (d *daemon) tick(t time.Time) {
	sample, err := d.reader.Read()
	if err != nil {
		// Log the first failure of a run so a lost device does not flood the log
		if !d.readFailing {
			d.logger.Error("input read error", "error", err)
			d.readFailing = true
		}
		return
	}
	if d.readFailing {
		d.logger.Info("input read recovered")
		d.readFailing = false
	}

	events := d.pad.Process(sample, t)
	for _, event := range events {
		d.logger.Debug("event", "type", event.Type, "key", event.Key, "action", event.Action, "layer", event.Layer, "macro", event.Macro)
		if err := d.publisher.Publish(event); err != nil {
			d.logger.Warn("publish error", "event", event.Type, "error", err)
		}
	}

	if hb := d.pad.CheckHeartbeat(t, d.heartbeat); hb != nil {
		d.publishHeartbeat(hb)
	}

	if d.tracker == nil {
		return
	}
	d.tracker.Update(d.pad.State())
	d.tracker.Record(events)
	d.refreshMQTT()
	if len(events) > 0 && d.hub != nil {
		d.hub.Broadcast(d.tracker.Snapshot())
	}
}

func (d *daemon) publishHeartbeat(hb *pad.HeartbeatData) {
	d.logger.Info("heartbeat",
		"uptime", hb.Uptime,
		"layer", hb.Label,
		"key_down", hb.Counts.KeyDown,
		"turns", hb.Counts.Turns,
		"macros", hb.Counts.MacroStarts,
		"busy", hb.Counts.MacroBusy,
		"dropped", hb.Counts.QueueDropped,
	)

	event := mqtt.SystemEvent{
		Timestamp: hb.Timestamp,
		Event:     "HEARTBEAT",
	}
	if d.tracker != nil {
		d.refreshMQTT()
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			d.tracker.SetNetwork(net)
		}
		d.tracker.Update(d.pad.State())
		event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		d.logger.Warn("heartbeat publish error", "error", err)
	}
}

func (d *daemon) shutdown(s os.Signal, t time.Time) {
	d.logger.Info("shutting down", "signal", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if d.tracker != nil {
		d.refreshMQTT()
		event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		d.logger.Warn("failed to publish shutdown event", "error", err)
	} else {
		d.logger.Info("published shutdown event")
	}
}

func (d *daemon) refreshMQTT() {
	if d.mqttStatus == nil {
		return
	}
	buffered := 0
	if b, ok := d.mqttStatus.(interface{ Buffered() int }); ok {
		buffered = b.Buffered()
	}
	d.tracker.SetMQTT(d.mqttStatus.IsConnected(), buffered)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// formatSample renders input levels for -print-state, e.g.
// "keys: 010000 enc_a: 1 enc_b: 1 button: 0".
func formatSample(s gpio.Sample) string {
	var b strings.Builder
	b.WriteString("keys: ")
	for _, k := range s.Keys {
		b.WriteString(bit(k))
	}
	fmt.Fprintf(&b, " enc_a: %s enc_b: %s button: %s", bit(s.EncA), bit(s.EncB), bit(s.EncButton))
	return b.String()
}

func bit(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
