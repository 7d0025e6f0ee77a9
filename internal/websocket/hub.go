package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dev-connector/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and broadcasts post events to them.
type Hub struct {
	// Registered clients. Maps user ID to a set of active client connections.
	Clients map[uuid.UUID]map[*Client]bool

	// Encoded events waiting to be fanned out.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Mutex to protect concurrent access to the clients map.
	mu sync.RWMutex

	// Closed when Run returns.
	done chan struct{}

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[uuid.UUID]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's processing loop. It returns when ctx is cancelled,
// closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, userClients := range h.Clients {
				for client := range userClients {
					close(client.Send)
				}
				delete(h.Clients, userID)
			}
			h.mu.Unlock()
			close(h.done)
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			h.logger.Debug("WebSocket client registered",
				zap.String("user_id", client.UserID.String()),
				zap.Int("connections", len(h.Clients[client.UserID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					close(client.Send)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
					}
					h.logger.Debug("WebSocket client unregistered",
						zap.String("user_id", client.UserID.String()),
						zap.Int("remaining", len(userClients)))
				}
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					select {
					case client.Send <- message:
					default:
						h.logger.Warn("Send buffer full, dropping event for client",
							zap.String("user_id", client.UserID.String()))
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastEvent queues evt for every connected client. It is an
// events.Handler, so the hub subscribes directly to the event bus.
func (h *Hub) BroadcastEvent(evt events.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("Failed to encode post event", zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- payload:
	case <-h.done:
	case <-time.After(time.Second):
		h.logger.Warn("Timeout queuing post event, hub might be busy",
			zap.String("type", string(evt.Type)))
	}
}

// Add registers c with the hub. It reports false once the hub has stopped.
func (h *Hub) Add(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Remove unregisters c. It is a no-op once the hub has stopped.
func (h *Hub) Remove(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// ConnectionCount returns the number of open client connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, userClients := range h.Clients {
		n += len(userClients)
	}
	return n
}
