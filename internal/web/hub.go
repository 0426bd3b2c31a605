package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/macropad/internal/status"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	defaultSendBuf      = 16
	defaultBroadcastBuf = 64
)

// Websocket message types.
const (
	MessageStateInit = "state_init"
	MessageState     = "state"
)

// Envelope is the wire format for websocket messages.
type Envelope struct {
	Type string              `json:"type"`
	Ts   time.Time           `json:"ts"`
	Data *status.StatusInner `json:"data,omitempty"`
}

func encodeEnvelope(typ string, snap status.Snapshot) ([]byte, error) {
	inner := status.WebView(snap)
	return json.Marshal(Envelope{Type: typ, Ts: snap.Now.UTC(), Data: &inner})
}

// Hub fans state messages out to connected websocket clients. Clients that
// cannot keep up are disconnected rather than allowed to stall the tick loop.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
	sendBuf int
}

// NewHub constructs a hub. Call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, defaultBroadcastBuf),
		register:   make(chan *client, 8),
		unregister: make(chan *client, 8),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		sendBuf:    defaultSendBuf,
	}
}

// Run processes hub events until ctx is canceled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client connected", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.remove(c, "closed")

		case msg := <-h.broadcast:
			var slow []*client
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()
			for _, c := range slow {
				h.remove(c, "slow client")
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a state message built from snap to every client. It never
// blocks; the message is dropped if the hub queue is full.
func (h *Hub) Broadcast(snap status.Snapshot) {
	msg, err := encodeEnvelope(MessageState, snap)
	if err != nil {
		h.logger.Warn("ws encode failed", "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws broadcast queue full, dropping message")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	once       sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, remoteAddr string) *client {
	return &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuf),
		remoteAddr: remoteAddr,
	}
}

// close signals writePump to exit. Safe to call more than once.
func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// writePump writes queued messages and keepalive pings until send is closed
// or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("ping", err)
				return
			}
		}
	}
}

// readPump discards inbound frames so control frames are handled and
// disconnects are noticed, then unregisters the client.
func (c *client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("read", err)
			select {
			case c.hub.unregister <- c:
			case <-c.hub.done:
			}
			return
		}
	}
}

func (c *client) logExit(op string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		c.hub.logger.Debug("ws "+op+" closed", "remote_addr", c.remoteAddr, "code", ce.Code)
		return
	}
	c.hub.logger.Debug("ws "+op+" failed", "remote_addr", c.remoteAddr, "error", err)
}
