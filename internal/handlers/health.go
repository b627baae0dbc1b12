package handlers

import (
	"context"
	"net/http"
	"time"

	"adroute-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConnectionCounter reports live WebSocket connections
type ConnectionCounter interface {
	GetClientCount() int
}

// HealthCheck reports database reachability and the number of live sockets
func HealthCheck(db Pinger, hub ConnectionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		if err := db.PingContext(ctx); err != nil {
			logrus.WithError(err).Warn("⚠️  Health check: database unreachable")
			status = http.StatusServiceUnavailable
			dbStatus = "unreachable"
		}

		utils.RespondJSON(w, status, map[string]interface{}{
			"status":            http.StatusText(status),
			"database":          dbStatus,
			"websocket_clients": hub.GetClientCount(),
		})
	}
}
