package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"adroute-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const routeColumns = `id, user_id, title, description, status, assigned_date, completion,
	share_with_employees, shared_employee_ids, created_at, updated_at`

// ListRoutesByUser returns a user's routes, newest first
func ListRoutesByUser(ctx context.Context, db *sqlx.DB, userID string) ([]models.Route, error) {
	routes := []models.Route{}
	query := `SELECT ` + routeColumns + ` FROM routes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if err := db.SelectContext(ctx, &routes, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// GetRoute loads a route by id
func GetRoute(ctx context.Context, db *sqlx.DB, id int64) (*models.Route, error) {
	var route models.Route
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	if err := db.GetContext(ctx, &route, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

// GetRouteForUser loads a route only if it belongs to userID
func GetRouteForUser(ctx context.Context, db *sqlx.DB, id int64, userID string) (*models.Route, error) {
	var route models.Route
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 AND user_id = $2`
	if err := db.GetContext(ctx, &route, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

// CreateRoute inserts a new route in the pending status
func CreateRoute(ctx context.Context, db *sqlx.DB, userID string, req models.CreateRouteRequest) (*models.Route, error) {
	now := time.Now().Unix()
	ids := req.SharedEmployeeIDs
	if ids == nil {
		ids = []int64{}
	}

	var route models.Route
	query := `
		INSERT INTO routes (
			user_id, title, description, status, assigned_date,
			share_with_employees, shared_employee_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + routeColumns

	err := db.GetContext(ctx, &route, query,
		userID, req.Title, req.Description, models.RouteStatusPending, req.AssignedDate,
		req.ShareWithEmployees, pq.Int64Array(ids), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return &route, nil
}

// UpdateRoute applies the editable fields of req; status is never touched here
func UpdateRoute(ctx context.Context, db *sqlx.DB, id int64, userID string, req models.UpdateRouteRequest) (*models.Route, error) {
	route, err := GetRouteForUser(ctx, db, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		route.Title = *req.Title
	}
	if req.Description != nil {
		route.Description = *req.Description
	}
	if req.AssignedDate != nil {
		route.AssignedDate = req.AssignedDate
	}
	if req.ShareWithEmployees != nil {
		route.ShareWithEmployees = *req.ShareWithEmployees
	}
	if req.SharedEmployeeIDs != nil {
		route.SharedEmployeeIDs = pq.Int64Array(req.SharedEmployeeIDs)
	}
	route.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE routes
		SET title = $1, description = $2, assigned_date = $3,
		    share_with_employees = $4, shared_employee_ids = $5, updated_at = $6
		WHERE id = $7`
	_, err = db.ExecContext(ctx, query,
		route.Title, route.Description, route.AssignedDate,
		route.ShareWithEmployees, route.SharedEmployeeIDs, route.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update route: %w", err)
	}
	return route, nil
}

// UpdateRouteStatus moves a route to status, optionally setting its completion
func UpdateRouteStatus(ctx context.Context, db *sqlx.DB, id int64, status models.RouteStatus, completion *int) (*models.Route, error) {
	var route models.Route
	query := `
		UPDATE routes
		SET status = $1,
		    completion = COALESCE($2, completion),
		    updated_at = $3
		WHERE id = $4
		RETURNING ` + routeColumns

	var c sql.NullInt64
	if completion != nil {
		c = sql.NullInt64{Int64: int64(models.ClampCompletion(*completion)), Valid: true}
	}

	if err := db.GetContext(ctx, &route, query, status, c, time.Now().Unix(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update route status: %w", err)
	}
	return &route, nil
}

// DeleteRoute removes a user's route and, through cascades, its schedules
func DeleteRoute(ctx context.Context, db *sqlx.DB, id int64, userID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTrackingSession records that the owner started live tracking
func CreateTrackingSession(ctx context.Context, db *sqlx.DB, session models.TrackingSession) error {
	query := `INSERT INTO route_tracking_sessions (id, route_id, user_id, started_at) VALUES ($1, $2, $3, $4)`
	if _, err := db.ExecContext(ctx, query, session.ID, session.RouteID, session.UserID, session.StartedAt); err != nil {
		return fmt.Errorf("failed to create tracking session: %w", err)
	}
	return nil
}
