package handlers

import (
	"encoding/json"
	"net/http"

	"adroute-backend/internal/middleware"
	"adroute-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// DiagnosticLog is a log line forwarded by the mobile app
type DiagnosticLog struct {
	Timestamp string                 `json:"timestamp"`
	Context   string                 `json:"context"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Platform  string                 `json:"platform"`
}

// ReceiveDiagnosticLog writes a mobile diagnostic into the server log
// POST /api/logs/diagnostic
func ReceiveDiagnosticLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry DiagnosticLog
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		fields := logrus.Fields{
			"platform":    entry.Platform,
			"context":     entry.Context,
			"client_time": entry.Timestamp,
			"diagnostic":  true,
		}
		if claims, ok := middleware.GetUserFromContext(r); ok {
			fields["user_id"] = claims.UserID
		}
		if len(entry.Data) > 0 {
			fields["data"] = entry.Data
		}

		log := logrus.WithFields(fields)
		switch entry.Level {
		case "ERROR":
			log.Error("🔴 " + entry.Message)
		case "WARNING":
			log.Warn("🟡 " + entry.Message)
		case "DEBUG":
			log.Debug("📱 " + entry.Message)
		default:
			log.Info("🔵 " + entry.Message)
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
		})
	}
}
