package websocket

import (
	"context"
	"encoding/json"
	"time"

	"adroute-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048

	// Time allowed to store a location_update
	ingestTimeout = 10 * time.Second
)

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	UserID   string
	UserRole string
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// locationUpdate is the data of a location_update message from a display unit
type locationUpdate struct {
	ScheduleID int64 `json:"schedule_id"`
	models.ScreenSessionRequest
}

// NewClient creates a new WebSocket client
func NewClient(userID, userRole string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		UserRole: userRole,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("client_id", c.ID).Warn("WebSocket error")
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logrus.WithError(err).Debug("Invalid message format")
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg IncomingMessage) {
	switch msg.Type {
	case "ping":
		c.reply(models.NewEvent(models.EventPong, nil))

	case "location_update":
		c.handleLocationUpdate(msg.Data)

	default:
		logrus.WithField("type", msg.Type).Debug("Ignoring unknown message type")
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleLocationUpdate stores a telemetry sample sent over the socket
func (c *Client) handleLocationUpdate(raw json.RawMessage) {
	if c.UserRole != models.RoleEmployee && c.UserRole != models.RoleAdmin {
		logrus.WithFields(logrus.Fields{
			"user_id": c.UserID,
			"role":    c.UserRole,
		}).Warn("❌ location_update from a role that cannot report telemetry")
		return
	}
	if c.hub.ingestor == nil {
		return
	}

	var update locationUpdate
	if err := json.Unmarshal(raw, &update); err != nil || update.ScheduleID <= 0 {
		logrus.WithError(err).WithField("user_id", c.UserID).Warn("❌ Invalid location_update payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if _, err := c.hub.ingestor.Ingest(ctx, update.ScheduleID, update.ScreenSessionRequest); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     c.UserID,
			"schedule_id": update.ScheduleID,
		}).Error("❌ Failed to store location_update")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     c.UserID,
		"schedule_id": update.ScheduleID,
	}).Debug("📍 Stored location_update")
}

func (c *Client) reply(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("❌ Failed to marshal reply")
		return
	}
	c.hub.deliver(c, data)
}
