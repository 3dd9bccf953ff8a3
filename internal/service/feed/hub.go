package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	applogger "FinTrack/pkg/logger"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by ServeWS once the hub has shut down.
var ErrClosed = errors.New("feed hub closed")

const writeWait = 10 * time.Second

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub broadcasts transaction events to connected websocket clients.
// A client whose send buffer is full is disconnected rather than slowing
// down publishers.
type Hub struct {
	log          *applogger.Logger
	pingInterval time.Duration
	sendBuffer   int
	origins      map[string]bool
	upgrader     websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

var _ domrepo.EventPublisher = (*Hub)(nil)

type Option func(*Hub)

func WithLogger(l *applogger.Logger) Option {
	return func(h *Hub) { h.log = l }
}

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// An empty list or "*" accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		for _, o := range origins {
			if o == "*" {
				h.origins = nil
				return
			}
			if h.origins == nil {
				h.origins = make(map[string]bool)
			}
			h.origins[o] = true
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		log:          applogger.Nop(),
		pingInterval: 30 * time.Second,
		sendBuffer:   64,
		clients:      make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	return h.origins[r.Header.Get("Origin")]
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams events until the client goes away.
// It returns ErrClosed without touching the response once the hub is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return nil
	}
	h.log.Info("feed client connected", applogger.String("remote", r.RemoteAddr), applogger.Int("clients", h.Clients()))

	go h.writeLoop(c)
	h.readLoop(c)
	h.unregister(c)
	h.log.Info("feed client disconnected", applogger.String("remote", r.RemoteAddr))
	return nil
}

// Publish encodes ev once and queues it for every client.
func (h *Hub) Publish(_ context.Context, ev models.TransactionEvent) error {
	msg, err := json.Marshal(models.NewTransactionEventJSON(ev))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("feed client too slow, disconnecting")
		h.unregister(c)
	}
	return nil
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	return h.Close()
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// unregister closes the send channel, which makes writeLoop send a close
// frame and release the connection.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

// readLoop discards client frames; it returns when the peer closes or the
// connection breaks.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
