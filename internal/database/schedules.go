package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"adroute-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// Date and time columns are cast to text so they scan into the wire format
// (YYYY-MM-DD, HH:MM:SS) instead of time.Time.
const scheduleColumns = `s.id, s.route_id, s.assigned_plan_id, s.assigned_screen_id, s.assigned_employee_id,
	s.schedule_date::text AS schedule_date, s.start_time::text AS start_time, s.end_time::text AS end_time,
	s.display_duration_minutes, s.price_per_hour, s.budget, s.route_type,
	s.start_lat, s.start_lng, s.end_lat, s.end_lng, s.center_lat, s.center_lng, s.radius_meters,
	s.status, s.created_by, s.created_at`

const sessionColumns = `id, assigned_schedule_id, session_date::text AS session_date,
	actual_start_time, actual_end_time,
	actual_duration_min, current_lat, current_lng, battery_level, signal_strength, status,
	to_char(last_update AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS') AS last_update`

// ListActiveSchedules returns the schedules matching filter, each with its
// screen sessions attached in insertion order
func ListActiveSchedules(ctx context.Context, db *sqlx.DB, filter models.ScheduleFilter) ([]models.ScheduleRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Date != "" {
		add("s.schedule_date = $%d::date", filter.Date)
	}
	if filter.Status != "" {
		add("s.status = $%d", filter.Status)
	}
	if filter.EmployeeID != nil {
		add("s.assigned_employee_id = $%d", *filter.EmployeeID)
	}
	if filter.UserID != "" {
		add("r.user_id = $%d", filter.UserID)
	}

	query := `SELECT ` + scheduleColumns + `
		FROM active_schedules s
		LEFT JOIN routes r ON r.id = s.route_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.id ASC"

	records := []models.ScheduleRecord{}
	if err := db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active schedules: %w", err)
	}

	if err := attachSessions(ctx, db, records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListRouteSchedules returns every schedule of a route with its sessions
func ListRouteSchedules(ctx context.Context, db *sqlx.DB, routeID int64) ([]models.ScheduleRecord, error) {
	records := []models.ScheduleRecord{}
	query := `SELECT ` + scheduleColumns + ` FROM active_schedules s WHERE s.route_id = $1 ORDER BY s.id ASC`
	if err := db.SelectContext(ctx, &records, query, routeID); err != nil {
		return nil, fmt.Errorf("failed to list route schedules: %w", err)
	}
	if err := attachSessions(ctx, db, records); err != nil {
		return nil, err
	}
	return records, nil
}

// attachSessions loads the screen sessions of all records in one query
func attachSessions(ctx context.Context, db *sqlx.DB, records []models.ScheduleRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]int64, len(records))
	index := make(map[int64]int, len(records))
	for i := range records {
		ids[i] = records[i].ID
		index[records[i].ID] = i
		records[i].ScreenSessions = []models.ScreenSession{}
	}

	query, args, err := sqlx.In(
		`SELECT `+sessionColumns+` FROM screen_sessions WHERE assigned_schedule_id IN (?) ORDER BY id ASC`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to build session query: %w", err)
	}

	var sessions []models.ScreenSession
	if err := db.SelectContext(ctx, &sessions, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load screen sessions: %w", err)
	}

	for _, s := range sessions {
		if i, ok := index[s.AssignedScheduleID]; ok {
			records[i].ScreenSessions = append(records[i].ScreenSessions, s)
		}
	}
	return nil
}

// ScheduleOwner returns the user owning the route a schedule belongs to
func ScheduleOwner(ctx context.Context, db *sqlx.DB, scheduleID int64) (string, error) {
	var owner sql.NullString
	query := `
		SELECT r.user_id
		FROM active_schedules s
		LEFT JOIN routes r ON r.id = s.route_id
		WHERE s.id = $1`
	if err := db.GetContext(ctx, &owner, query, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get schedule owner: %w", err)
	}
	return owner.String, nil
}

// CreateSchedule inserts a validated schedule request
func CreateSchedule(ctx context.Context, db *sqlx.DB, req models.CreateScheduleRequest, createdBy string) (*models.ScheduleRecord, error) {
	var id int64
	query := `
		INSERT INTO active_schedules (
			route_id, assigned_screen_id, assigned_employee_id, schedule_date, start_time, end_time,
			display_duration_minutes, price_per_hour, budget, route_type,
			start_lat, start_lng, end_lat, end_lng, center_lat, center_lng, radius_meters,
			status, created_by, created_at
		) VALUES (
			$1, $2, $3, $4::date, $5::time, $6::time,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17,
			'active', $18, $19
		)
		RETURNING id`

	radius := req.RadiusMeters
	if req.RouteType == models.RouteTypeArea && radius == nil {
		r := models.DefaultAreaRadiusMeters
		radius = &r
	}

	err := db.QueryRowxContext(ctx, query,
		req.RouteID, req.AssignedScreenID, req.AssignedEmployeeID, req.ScheduleDate, req.StartTime, req.EndTime,
		req.DisplayDurationMinutes, req.PricePerHour, req.Budget, req.RouteType,
		req.StartLat, req.StartLng, req.EndLat, req.EndLng, req.CenterLat, req.CenterLng, radius,
		createdBy, time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	return GetSchedule(ctx, db, id)
}

// GetSchedule loads one schedule with its sessions
func GetSchedule(ctx context.Context, db *sqlx.DB, id int64) (*models.ScheduleRecord, error) {
	var record models.ScheduleRecord
	query := `SELECT ` + scheduleColumns + ` FROM active_schedules s WHERE s.id = $1`
	if err := db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	records := []models.ScheduleRecord{record}
	if err := attachSessions(ctx, db, records); err != nil {
		return nil, err
	}
	return &records[0], nil
}

// InsertScreenSession stores one telemetry sample and returns it as stored
func InsertScreenSession(ctx context.Context, db *sqlx.DB, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error) {
	sessionDate := req.SessionDate
	if sessionDate == "" {
		sessionDate = time.Now().UTC().Format("2006-01-02")
	}

	lastUpdate := time.Now().UTC()
	if req.Timestamp > 0 {
		lastUpdate = time.UnixMilli(req.Timestamp).UTC()
	}

	var session models.ScreenSession
	query := `
		INSERT INTO screen_sessions (
			assigned_schedule_id, session_date, actual_start_time, actual_end_time,
			current_lat, current_lng, battery_level, signal_strength, status, last_update
		) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + sessionColumns

	err := db.GetContext(ctx, &session, query,
		scheduleID, sessionDate, req.ActualStartTime, req.ActualEndTime,
		req.CurrentLat, req.CurrentLng, req.BatteryLevel, req.SignalStrength, req.Status, lastUpdate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert screen session: %w", err)
	}
	return &session, nil
}
