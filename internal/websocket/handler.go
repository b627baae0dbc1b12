package websocket

import (
	"net/http"
	"strings"

	"adroute-backend/internal/middleware"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Mobile clients send no Origin; browser access is gated by the token
		return true
	},
}

// HandleWebSocket upgrades HTTP connection to WebSocket.
// The token comes from ?token= (browsers cannot set headers on upgrade) or the Authorization header.
func HandleWebSocket(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		var userClaims middleware.UserClaims
		if tokenString != "" {
			claims, err := middleware.ParseToken(tokenString, jwtSecret)
			if err != nil {
				logrus.WithError(err).Warn("❌ Invalid WebSocket token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			userClaims = claims
		} else {
			// Fallback: Get user from context (set by Auth middleware)
			var ok bool
			userClaims, ok = middleware.GetUserFromContext(r)
			if !ok {
				logrus.Warn("❌ No user for WebSocket connection")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("❌ WebSocket upgrade failed")
			return
		}

		client := NewClient(userClaims.UserID, userClaims.Role, conn, hub)

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
