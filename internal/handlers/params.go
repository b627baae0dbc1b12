package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"adroute-backend/internal/database"
	"adroute-backend/internal/middleware"
	"adroute-backend/internal/models"
	"adroute-backend/internal/projection"
	"adroute-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// idParam reads a positive integer path parameter
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// currentUser returns the authenticated caller or writes a 401
func currentUser(w http.ResponseWriter, r *http.Request) (middleware.UserClaims, bool) {
	claims, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return claims, ok
}

// respondStoreError maps database errors to HTTP responses
func respondStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, database.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, what+" not found")
		return
	}
	logrus.WithError(err).Errorf("❌ Failed to load %s", strings.ToLower(what))
	utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
}

// parseScheduleFilter reads date, status and employee_id. Non-admins only
// ever see schedules of their own routes.
func parseScheduleFilter(r *http.Request, claims middleware.UserClaims) (models.ScheduleFilter, error) {
	q := r.URL.Query()
	filter := models.ScheduleFilter{
		Date:   q.Get("date"),
		Status: q.Get("status"),
	}

	if filter.Date != "" {
		if _, err := time.Parse("2006-01-02", filter.Date); err != nil {
			return filter, fmt.Errorf("date must be YYYY-MM-DD")
		}
	}

	if raw := q.Get("employee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("employee_id must be an integer")
		}
		filter.EmployeeID = &id
	}

	if claims.Role != models.RoleAdmin {
		filter.UserID = claims.UserID
	}
	return filter, nil
}

// parseSelection reads route_ids=1,2,3; empty means every route
func parseSelection(r *http.Request) (projection.Selection, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("route_ids"))
	if raw == "" {
		return projection.NewSelection(), nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("route_ids must be a comma separated list of integers")
		}
		ids = append(ids, id)
	}
	return projection.NewSelection(ids...), nil
}
