package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/macropad/internal/pad"
	"github.com/sweeney/macropad/internal/ring"
)

// Config configures the broker connection.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	// BufferSize is how many messages are kept while disconnected.
	BufferSize int
	Logger     *slog.Logger
}

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// sendFunc hands one message to the broker client.
type sendFunc func(msg bufferedMsg) error

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// RealPublisher publishes to an actual MQTT broker. Messages produced while
// the connection is down are kept in a ring buffer (oldest dropped first)
// and replayed in order on reconnect. Publishing never blocks the caller on
// the network except for retained lifecycle events.
type RealPublisher struct {
	client paho.Client
	topics Topics
	logger *slog.Logger
	send   sendFunc

	mu        sync.Mutex
	connected bool
	// replaying keeps new messages in buf until the backlog is sent, so
	// they cannot overtake older ones.
	replaying bool
	everUp    bool
	buf       *ring.Buffer[bufferedMsg]
}

// newPublisher builds the buffering logic around send; the caller wires the
// connection callbacks.
func newPublisher(topics Topics, bufferSize int, logger *slog.Logger, send sendFunc) *RealPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RealPublisher{
		topics: topics,
		logger: logger,
		send:   send,
		buf:    ring.New[bufferedMsg](bufferSize, "mqtt offline", logger),
	}
}

// NewRealPublisher creates a publisher and starts connecting to the broker.
// If the broker is unreachable the client keeps retrying in the background
// and events are buffered meanwhile.
func NewRealPublisher(cfg Config) (*RealPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker is empty")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "macropad"
	}

	p := newPublisher(TopicsFor(cfg.TopicPrefix), cfg.BufferSize, cfg.Logger, nil)
	p.send = p.pahoSend

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect(time.Now()) }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	// With ConnectRetry the token only completes once connected; a timeout
	// just means we start offline.
	if token.WaitTimeout(connectTimeout) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	} else {
		p.logger.Warn("mqtt broker not reachable yet, buffering", "broker", cfg.Broker)
	}
	return p, nil
}

// pahoSend publishes without waiting for QoS 0 and non-retained messages.
func (p *RealPublisher) pahoSend(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if msg.retained {
		if !token.WaitTimeout(publishTimeout) {
			return errors.New("publish timeout")
		}
		return token.Error()
	}
	select {
	case <-token.Done():
		return token.Error()
	default:
		return nil
	}
}

func (p *RealPublisher) onConnect(now time.Time) {
	p.mu.Lock()
	p.connected = true
	p.replaying = true
	reconnect := p.everUp
	p.everUp = true
	p.logger.Info("mqtt connected", "replaying", p.buf.Len())

	for {
		pending := p.buf.DrainAll()
		if len(pending) == 0 {
			p.replaying = false
			break
		}
		p.mu.Unlock()
		for _, msg := range pending {
			if err := p.send(msg); err != nil {
				p.logger.Warn("mqtt replay failed", "topic", msg.topic, "error", err)
			}
		}
		p.mu.Lock()
	}
	p.mu.Unlock()

	if !reconnect {
		return
	}
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: now, Event: "RECONNECTED"})
	if err != nil {
		p.logger.Warn("mqtt format failed", "event", "RECONNECTED", "error", err)
		return
	}
	if err := p.send(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1}); err != nil {
		p.logger.Warn("mqtt publish failed", "event", "RECONNECTED", "error", err)
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.logger.Warn("mqtt connection lost", "error", err)
}

// publish sends msg now or buffers it while disconnected.
func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	if !p.connected || p.replaying {
		p.buf.Push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(msg)
}

// Publish sends a pad event (QoS 0, not retained).
func (p *RealPublisher) Publish(event pad.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := p.publish(bufferedMsg{topic: p.topics.Events, payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	msg := bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained}
	if err := p.publish(msg); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns how many messages are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if p.client != nil {
		p.client.Disconnect(1000) // 1 second timeout
	}
	return nil
}
