package handlers

import (
	"context"
	"net/http"
	"time"

	"adroute-backend/internal/middleware"
	"adroute-backend/internal/models"
	"adroute-backend/internal/projection"
	"adroute-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// Background direction lookups outlive the request but not this long
const directionsTimeout = 30 * time.Second

// ScheduleSource lists active schedules with their sessions
type ScheduleSource interface {
	ListActiveSchedules(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error)
}

// UserBroadcaster pushes live events to one user's connections
type UserBroadcaster interface {
	BroadcastToUser(userID string, data interface{})
}

// MapResponse is the overlay plus the region that frames it
type MapResponse struct {
	projection.Snapshot
	Viewport          projection.Viewport `json:"viewport"`
	PendingDirections int                 `json:"pending_directions"`
}

// GetActiveRoutes returns the caller's active schedules with their screen sessions
func GetActiveRoutes(source ScheduleSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		filter, err := parseScheduleFilter(r, claims)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		records, err := source.ListActiveSchedules(r.Context(), filter)
		if err != nil {
			logrus.WithError(err).Error("❌ Failed to list active schedules")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch active routes")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    records,
		})
	}
}

// GetActiveRoutesMap projects the selected schedules into map primitives.
// With a directions lookup configured, fixed routes get walking paths: they
// are streamed as direction_polyline events after the response, or included
// in it when wait_directions=true.
func GetActiveRoutesMap(source ScheduleSource, lookup projection.DirectionsLookup, hub UserBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		schedules, sel, ok := loadSchedules(w, r, source, claims)
		if !ok {
			return
		}

		wait := r.URL.Query().Get("wait_directions") == "true"
		snapshot, pending := projectOverlay(r.Context(), schedules, sel, lookup, wait, func(line projection.Polyline) {
			hub.BroadcastToUser(claims.UserID, models.NewEvent(models.EventDirectionPolyline, line))
		})

		utils.RespondJSON(w, http.StatusOK, MapResponse{
			Snapshot:          snapshot,
			Viewport:          projection.FitSnapshot(snapshot),
			PendingDirections: pending,
		})
	}
}

// GetActiveRoutesGeoJSON returns the same overlay as a GeoJSON FeatureCollection.
// Walking directions are awaited for as long as the request lives.
func GetActiveRoutesGeoJSON(source ScheduleSource, lookup projection.DirectionsLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}

		schedules, sel, ok := loadSchedules(w, r, source, claims)
		if !ok {
			return
		}

		snapshot, _ := projectOverlay(r.Context(), schedules, sel, lookup, true, nil)
		utils.RespondGeoJSON(w, http.StatusOK, projection.FeatureCollection(snapshot))
	}
}

func loadSchedules(
	w http.ResponseWriter,
	r *http.Request,
	source ScheduleSource,
	claims middleware.UserClaims,
) ([]models.ActiveSchedule, projection.Selection, bool) {
	filter, err := parseScheduleFilter(r, claims)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	sel, err := parseSelection(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	records, err := source.ListActiveSchedules(r.Context(), filter)
	if err != nil {
		logrus.WithError(err).Error("❌ Failed to list active schedules")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch active routes")
		return nil, nil, false
	}

	return models.ResolveAll(records), sel, true
}

// projectOverlay runs the projector and returns the overlay together with the
// number of direction lookups not yet reflected in it. Every polyline missing
// from the snapshot is counted there and later pushed through onArrive; a
// polyline in the snapshot is never pushed.
func projectOverlay(
	ctx context.Context,
	schedules []models.ActiveSchedule,
	sel projection.Selection,
	lookup projection.DirectionsLookup,
	wait bool,
	onArrive func(projection.Polyline),
) (projection.Snapshot, int) {
	if lookup == nil {
		return projection.Project(schedules, sel).Snapshot(), 0
	}

	if wait {
		overlay, pending := projection.ProjectAsync(ctx, schedules, sel, lookup, nil)
		select {
		case <-pending.Done():
		case <-ctx.Done():
		}
		return overlay.Publish()
	}

	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directionsTimeout)
	overlay, pending := projection.ProjectAsync(lookupCtx, schedules, sel, lookup, onArrive)
	go func() {
		<-pending.Done()
		cancel()
	}()

	return overlay.Publish()
}
