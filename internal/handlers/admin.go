package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"adroute-backend/internal/database"
	"adroute-backend/internal/middleware"
	"adroute-backend/internal/models"
	"adroute-backend/pkg/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// RouteStatusNotifier sends push notifications about status changes
type RouteStatusNotifier interface {
	SendRouteStatusNotification(ctx context.Context, tokens []string, route *models.Route) error
}

// Broadcaster pushes live events to a user and to everyone holding a role
type Broadcaster interface {
	UserBroadcaster
	BroadcastToRole(role string, data interface{})
}

// AdminUpdateRouteStatus moves a route through the back-office workflow and
// tells the owner over the WebSocket and, when configured, FCM
func AdminUpdateRouteStatus(db *sqlx.DB, hub Broadcaster, notifier RouteStatusNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.UpdateRouteStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		status, err := models.ParseRouteStatus(req.Status)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		route, err := database.UpdateRouteStatus(r.Context(), db, id, status, req.Completion)
		if err != nil {
			respondStoreError(w, err, "Route")
			return
		}

		logrus.WithFields(logrus.Fields{
			"route_id":   route.ID,
			"status":     route.Status,
			"completion": route.Completion,
		}).Info("🔄 Route status updated")

		event := models.NewEvent(models.EventRouteStatusChanged, models.RouteStatusChange{
			RouteID:       route.ID,
			Status:        route.Status,
			Description:   route.Status.StatusDescription(),
			Color:         route.Status.StatusColor(),
			Completion:    route.Completion,
			ProgressLevel: models.ProgressLevelFor(route.Completion),
		})
		hub.BroadcastToUser(route.UserID, event)
		hub.BroadcastToRole(models.RoleAdmin, event)

		if notifier != nil {
			go notifyStatusChange(db, notifier, *route)
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    route.ToRouteResponse(),
		})
	}
}

func notifyStatusChange(db *sqlx.DB, notifier RouteStatusNotifier, route models.Route) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tokens, err := database.GetUserFCMTokens(ctx, db, route.UserID)
	if err != nil {
		logrus.WithError(err).WithField("route_id", route.ID).Error("❌ Failed to load FCM tokens")
		return
	}
	if err := notifier.SendRouteStatusNotification(ctx, tokens, &route); err != nil {
		logrus.WithError(err).WithField("route_id", route.ID).Error("❌ Failed to send status notification")
	}
}

// AdminCreateSchedule assigns a screen schedule with fixed or area geometry to a route
func AdminCreateSchedule(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req models.CreateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := req.Validate(); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := time.Parse("2006-01-02", req.ScheduleDate); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "schedule_date must be YYYY-MM-DD")
			return
		}

		if _, err := database.GetRoute(r.Context(), db, req.RouteID); err != nil {
			respondStoreError(w, err, "Route")
			return
		}

		schedule, err := database.CreateSchedule(r.Context(), db, req, claims.UserID)
		if err != nil {
			logrus.WithError(err).Error("❌ Failed to create schedule")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create schedule")
			return
		}

		logrus.WithFields(logrus.Fields{
			"schedule_id": schedule.ID,
			"route_id":    req.RouteID,
			"route_type":  req.RouteType,
		}).Info("🗓️  Schedule created")

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    schedule,
		})
	}
}
