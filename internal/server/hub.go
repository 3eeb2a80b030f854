package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"go.uber.org/zap"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
)

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan types.Event
}

// Hub streams notifier events to websocket clients. A client whose buffer is
// full is disconnected; Notify never waits on a client.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewHub(m *metrics.Metrics, log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		metrics: m,
		logger:  log.Named("hub"),
	}
}

// Notify implements notifier.Notifier.
func (h *Hub) Notify(event types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn("Dropping slow event client", zap.String("remote", c.remote))
			h.metrics.NotificationDropped()
			h.remove(c)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		h.remove(c)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))

		return
	}

	c := &client{conn: conn, remote: conn.RemoteAddr().String(), send: make(chan types.Event, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()

		return
	}

	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.write(c)
	h.read(c)
}

func (h *Hub) write(c *client) {
	defer c.conn.Close()

	for event := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := c.conn.WriteJSON(event); err != nil {
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

// read discards client messages until the connection ends.
func (h *Hub) read(c *client) {
	defer func() {
		h.mu.Lock()
		h.remove(c)
		h.mu.Unlock()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
