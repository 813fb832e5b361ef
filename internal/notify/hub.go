// Package notify keeps the registry of live WebSocket clients and pushes events to them.
package notify

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendBufferSize = 64

// Client is one registered connection. Messages queued on Send are written by the transport.
type Client struct {
	ID string

	send   chan []byte
	done   chan struct{}
	userID string
	closed bool
}

// Send returns the queue the transport drains. It is closed when the client is unregistered.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Done is closed when the client is unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub is the registry of connections. All methods are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("notify"),
	}
}

// Register adds a new client under a fresh id and queues the welcome message.
func (h *Hub) Register() *Client {
	c := &Client{
		ID:   uuid.NewString(),
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.deliver(c, ConnectionMessage{
		Type:     TypeConnection,
		Message:  "connected to notification server",
		ClientID: c.ID,
	})
	h.logger.Debug("client registered", zap.String("client_id", c.ID))
	return c
}

// Associate binds the client to userID. A later call replaces the previous user.
func (h *Hub) Associate(clientID, userID string) bool {
	h.mu.Lock()
	c, ok := h.clients[clientID]
	if ok {
		c.userID = userID
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	h.deliver(c, JoinedMessage{Type: TypeJoined, Message: "subscribed to order notifications"})
	h.logger.Debug("client joined", zap.String("client_id", clientID), zap.String("user_id", userID))
	return true
}

// Unregister removes the client and closes its queue. Unknown ids are ignored.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	c.closed = true
	close(c.done)
	close(c.send)
	h.logger.Debug("client unregistered", zap.String("client_id", clientID))
}

// Broadcast queues msg for every open client and returns how many accepted it.
func (h *Hub) Broadcast(msg any) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode broadcast", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, c := range h.clients {
		if h.enqueue(c, data) {
			sent++
		}
	}
	return sent
}

// SendToUser queues msg for every client associated with userID.
// It reports whether at least one client accepted the message.
func (h *Hub) SendToUser(userID string, msg any) bool {
	if userID == "" {
		return false
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode user message", zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := false
	for _, c := range h.clients {
		if c.userID == userID && h.enqueue(c, data) {
			sent = true
		}
	}
	return sent
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters every client.
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Unregister(id)
	}
}

func (h *Hub) deliver(c *Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode message", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.enqueue(c, data)
}

// enqueue must be called with h.mu held. A full queue drops the message.
func (h *Hub) enqueue(c *Client, data []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		h.logger.Warn("client queue full, dropping message", zap.String("client_id", c.ID))
		return false
	}
}
