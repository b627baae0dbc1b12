package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"adroute-backend/internal/database"
	"adroute-backend/internal/models"
	"adroute-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// GetRoutes returns the caller's routes with their derived status flags
func GetRoutes(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		routes, err := database.ListRoutesByUser(r.Context(), db, claims.UserID)
		if err != nil {
			logrus.WithError(err).Error("❌ Failed to list routes")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch routes")
			return
		}

		response := make([]models.RouteResponse, len(routes))
		for i := range routes {
			response[i] = routes[i].ToRouteResponse()
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    response,
		})
	}
}

// GetRoute returns a single route with its workflow checklist and tracking eligibility
func GetRoute(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		id, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		route, err := database.GetRouteForUser(r.Context(), db, id, claims.UserID)
		if err != nil {
			respondStoreError(w, err, "Route")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    route.ToRouteDetailResponse(time.Now()),
		})
	}
}

// CreateRoute submits a new advertising request in the pending status
func CreateRoute(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.CreateRouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			utils.RespondError(w, http.StatusBadRequest, "title is required")
			return
		}

		route, err := database.CreateRoute(r.Context(), db, claims.UserID, req)
		if err != nil {
			logrus.WithError(err).Error("❌ Failed to create route")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create route")
			return
		}

		logrus.WithFields(logrus.Fields{
			"route_id": route.ID,
			"user_id":  claims.UserID,
		}).Info("🆕 Route request created")

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    route.ToRouteResponse(),
		})
	}
}

// UpdateRoute edits the customer-owned fields of a route. Status only moves through the admin API.
func UpdateRoute(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		id, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.UpdateRouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
			utils.RespondError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}

		route, err := database.UpdateRoute(r.Context(), db, id, claims.UserID, req)
		if err != nil {
			respondStoreError(w, err, "Route")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    route.ToRouteResponse(),
		})
	}
}

// DeleteRoute removes one of the caller's routes
func DeleteRoute(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		id, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := database.DeleteRoute(r.Context(), db, id, claims.UserID); err != nil {
			respondStoreError(w, err, "Route")
			return
		}

		logrus.WithField("route_id", id).Info("🗑️  Route deleted")
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Route deleted",
		})
	}
}

// TrackingStore loads the caller's route and records tracking sessions
type TrackingStore interface {
	GetRouteForUser(ctx context.Context, id int64, userID string) (*models.Route, error)
	CreateTrackingSession(ctx context.Context, session models.TrackingSession) error
}

// StartRouteTracking opens a live tracking session when the route is eligible.
// Ineligible routes get a 409 carrying the reason.
func StartRouteTracking(store TrackingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		id, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		route, err := store.GetRouteForUser(r.Context(), id, claims.UserID)
		if err != nil {
			respondStoreError(w, err, "Route")
			return
		}

		now := time.Now()
		eligibility := route.LiveTrackingEligibility(now)
		if !eligibility.Eligible {
			utils.RespondJSON(w, http.StatusConflict, map[string]interface{}{
				"success": false,
				"error":   "Live tracking is not available for this route",
				"reason":  eligibility.Reason,
			})
			return
		}

		session := models.TrackingSession{
			ID:        uuid.New().String(),
			RouteID:   route.ID,
			UserID:    claims.UserID,
			StartedAt: now.Unix(),
		}
		if err := store.CreateTrackingSession(r.Context(), session); err != nil {
			logrus.WithError(err).Error("❌ Failed to start tracking")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to start tracking")
			return
		}

		logrus.WithFields(logrus.Fields{
			"route_id":   route.ID,
			"session_id": session.ID,
		}).Info("📡 Live tracking started")

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    session,
		})
	}
}

// GetRouteTrack returns the screen sessions recorded for a route, grouped by schedule
func GetRouteTrack(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		id, err := idParam(r, "id")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if claims.Role != models.RoleAdmin {
			if _, err := database.GetRouteForUser(r.Context(), db, id, claims.UserID); err != nil {
				respondStoreError(w, err, "Route")
				return
			}
		}

		schedules, err := database.ListRouteSchedules(r.Context(), db, id)
		if err != nil {
			logrus.WithError(err).Error("❌ Failed to load route track")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch route track")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    schedules,
		})
	}
}
