package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// SeedDemo fills an empty database with Istanbul demo users, routes and schedules
func SeedDemo(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		logrus.Info("✓ Demo data already seeded, skipping...")
		return nil
	}

	logrus.Info("🌱 Seeding demo data...")

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	adminID := uuid.New().String()
	customerID := uuid.New().String()

	users := []map[string]interface{}{
		{"id": adminID, "phone": "+905550000001", "name": "Operations Desk", "role": "admin"},
		{"id": customerID, "phone": "+905550000002", "name": "Demo Customer", "role": "customer"},
	}
	for _, user := range users {
		query := `INSERT INTO users (id, phone, name, role) VALUES (:id, :phone, :name, :role)`
		if _, err := tx.NamedExec(query, user); err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		logrus.WithFields(logrus.Fields{"phone": user["phone"], "role": user["role"]}).Info("  ✓ Created user")
	}

	startedAt := time.Now().Add(-time.Hour)
	routes := []struct {
		title      string
		status     string
		assigned   *time.Time
		completion int
	}{
		{"Sultanahmet - Taksim walk", "active", &startedAt, 40},
		{"Beşiktaş square coverage", "active", &startedAt, 65},
		{"Kadıköy - Üsküdar coast", "scheduled", nil, 0},
	}

	routeIDs := make([]int64, len(routes))
	for i, r := range routes {
		err := tx.QueryRowx(`
			INSERT INTO routes (user_id, title, status, assigned_date, completion)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			customerID, r.title, r.status, r.assigned, r.completion,
		).Scan(&routeIDs[i])
		if err != nil {
			return fmt.Errorf("failed to seed route: %w", err)
		}
	}

	today := time.Now().UTC().Format("2006-01-02")

	var fixedID, areaID, coastID int64
	err = tx.QueryRowx(`
		INSERT INTO active_schedules (route_id, assigned_screen_id, assigned_employee_id, schedule_date,
			start_time, end_time, display_duration_minutes, price_per_hour, budget, route_type,
			start_lat, start_lng, end_lat, end_lng, status, created_by)
		VALUES ($1, 301, 401, $2::date, '09:00:00', '17:00:00', 480, 50.0, 400.0, 'fixed_route',
			41.0082, 28.9784, 41.0369, 28.9850, 'active', 'seed')
		RETURNING id`, routeIDs[0], today).Scan(&fixedID)
	if err != nil {
		return fmt.Errorf("failed to seed fixed schedule: %w", err)
	}

	err = tx.QueryRowx(`
		INSERT INTO active_schedules (route_id, assigned_screen_id, assigned_employee_id, schedule_date,
			start_time, end_time, display_duration_minutes, price_per_hour, budget, route_type,
			center_lat, center_lng, radius_meters, status, created_by)
		VALUES ($1, 302, 402, $2::date, '10:00:00', '18:00:00', 480, 60.0, 480.0, 'area_route',
			41.0438, 29.0083, 1500, 'active', 'seed')
		RETURNING id`, routeIDs[1], today).Scan(&areaID)
	if err != nil {
		return fmt.Errorf("failed to seed area schedule: %w", err)
	}

	err = tx.QueryRowx(`
		INSERT INTO active_schedules (route_id, assigned_screen_id, assigned_employee_id, schedule_date,
			start_time, end_time, display_duration_minutes, price_per_hour, budget, route_type,
			start_lat, start_lng, end_lat, end_lng, status, created_by)
		VALUES ($1, 303, 403, $2::date, '08:00:00', '16:00:00', 480, 55.0, 440.0, 'fixed_route',
			40.9909, 29.0303, 41.0235, 29.0122, 'active', 'seed')
		RETURNING id`, routeIDs[2], today).Scan(&coastID)
	if err != nil {
		return fmt.Errorf("failed to seed coast schedule: %w", err)
	}

	sessions := []struct {
		scheduleID int64
		lat, lng   float64
		battery    int
		signal     int
	}{
		{areaID, 41.0422, 29.0083, 92, 95},
		{areaID, 41.0400, 29.0100, 90, 90},
		{areaID, 41.0390, 29.0060, 88, 85},
		{coastID, 40.9909, 29.0303, 95, 98},
		{coastID, 41.0072, 29.0212, 92, 95},
		{coastID, 41.0235, 29.0122, 88, 90},
	}
	for _, s := range sessions {
		_, err := tx.Exec(`
			INSERT INTO screen_sessions (assigned_schedule_id, session_date, current_lat, current_lng,
				battery_level, signal_strength, status)
			VALUES ($1, $2::date, $3, $4, $5, $6, 'active')`,
			s.scheduleID, today, s.lat, s.lng, s.battery, s.signal,
		)
		if err != nil {
			return fmt.Errorf("failed to seed screen session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit demo data: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"routes":       len(routes),
		"schedule_ids": []int64{fixedID, areaID, coastID},
		"sessions":     len(sessions),
	}).Info("✓ Successfully seeded demo data")
	logrus.Infof("  📱 Admin:    %s", users[0]["phone"])
	logrus.Infof("  📱 Customer: %s", users[1]["phone"])
	return nil
}
