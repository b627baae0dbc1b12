package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"adroute-backend/internal/database"
	"adroute-backend/internal/models"
	"adroute-backend/internal/services/tracking"
	"adroute-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// SessionIngestor stores display-unit telemetry
type SessionIngestor interface {
	Ingest(ctx context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error)
}

// IngestScreenSession stores a telemetry sample for a schedule.
// The same samples may also arrive as location_update messages on the WebSocket.
func IngestScreenSession(ingestor SessionIngestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduleID, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.ScreenSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		session, err := ingestor.Ingest(r.Context(), scheduleID, req)
		switch {
		case errors.Is(err, tracking.ErrInvalidPosition):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, database.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "Schedule not found")
			return
		case err != nil:
			logrus.WithError(err).WithField("schedule_id", scheduleID).Error("❌ Failed to store screen session")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to store session")
			return
		}

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    session,
		})
	}
}
