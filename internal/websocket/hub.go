package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"adroute-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// SessionIngestor stores telemetry sent by display units over the socket
type SessionIngestor interface {
	Ingest(ctx context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error)
}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients (userID -> connections of that user)
	clients map[string]map[*Client]struct{}

	// Outbound messages addressed to one user
	broadcast chan *Message

	register   chan *Client
	unregister chan *Client

	// Handles location_update messages; nil disables socket ingest
	ingestor SessionIngestor

	// Closed once Run has returned
	done chan struct{}

	// Guards clients; Run is the only writer
	mu sync.RWMutex
}

// Message represents a message to broadcast to a specific user
type Message struct {
	UserID string
	Data   interface{}
}

// NewHub creates a new Hub instance
func NewHub(ingestor SessionIngestor) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ingestor:   ingestor,
		done:       make(chan struct{}),
	}
}

// SetIngestor attaches the telemetry ingestor. Call it before Run; the
// ingestor usually needs the hub itself as its broadcaster.
func (h *Hub) SetIngestor(ingestor SessionIngestor) {
	h.ingestor = ingestor
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			logrus.Info("🛑 [WEBSOCKET] Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			total := h.countLocked()
			h.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"client_id": client.ID,
				"user_id":   client.UserID,
				"role":      client.UserRole,
				"total":     total,
			}).Info("✅ [WEBSOCKET] Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if h.removeLocked(client) {
				logrus.WithFields(logrus.Fields{
					"client_id": client.ID,
					"user_id":   client.UserID,
					"remaining": h.countLocked(),
				}).Info("🔴 [WEBSOCKET] Client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message.Data)
			if err != nil {
				logrus.WithError(err).Error("❌ Failed to marshal message")
				continue
			}

			h.mu.Lock()
			for client := range h.clients[message.UserID] {
				select {
				case client.send <- data:
				default:
					// Client buffer full, disconnect
					h.removeLocked(client)
					logrus.WithField("user_id", message.UserID).Warn("⚠️  Client buffer full, disconnecting")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// removeLocked drops a client and closes its send channel; caller holds the write lock
func (h *Hub) removeLocked(client *Client) bool {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	return true
}

func (h *Hub) countLocked() int {
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// BroadcastToUser queues a message for every connection of a user.
// Users without a connection simply miss it.
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	select {
	case h.broadcast <- &Message{UserID: userID, Data: data}:
	case <-h.done:
	}
}

// BroadcastToRole sends a message to all users with a specific role
func (h *Hub) BroadcastToRole(role string, data interface{}) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Error("❌ Failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.clients {
		for client := range conns {
			if client.UserRole != role {
				continue
			}
			select {
			case client.send <- dataBytes:
			default:
			}
		}
	}
}

// deliver sends raw bytes to one client if it is still registered
func (h *Hub) deliver(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client.UserID][client]; !ok {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// GetClientCount returns the number of open connections
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// IsUserConnected checks if a user has at least one open connection
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
