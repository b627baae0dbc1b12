package database

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

func Connect(dbURL string) (*sqlx.DB, error) {
	logrus.WithFields(logrus.Fields{
		"url_length": len(dbURL),
		"url_prefix": dbURL[:min(30, len(dbURL))],
	}).Info("🔌 Connecting to database")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logrus.WithError(err).Error("❌ Database connection failed at sqlx.Connect()")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Error("❌ Database connection failed at Ping()")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("✅ Database connection successful")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Customers and back-office users; phone is the OTP login identity
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			email TEXT,
			company_name TEXT,
			role TEXT NOT NULL DEFAULT 'customer' CHECK(role IN ('customer', 'employee', 'admin')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Advertising route requests moving through the status workflow
		`CREATE TABLE IF NOT EXISTS routes (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN (
				'pending', 'proposal_pending', 'proposal_ready', 'proposal_approved',
				'payment_pending', 'payment_completed', 'final_approval', 'scheduled',
				'active', 'paused', 'completed', 'cancelled')),
			assigned_date TIMESTAMPTZ,
			completion INT NOT NULL DEFAULT 0 CHECK(completion BETWEEN 0 AND 100),
			share_with_employees BOOLEAN NOT NULL DEFAULT FALSE,
			shared_employee_ids BIGINT[] NOT NULL DEFAULT '{}',
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Concrete screen assignments for a route; geometry depends on route_type.
		// route_type is left unconstrained so imported rows with unknown types still load.
		`CREATE TABLE IF NOT EXISTS active_schedules (
			id BIGSERIAL PRIMARY KEY,
			route_id BIGINT,
			assigned_plan_id BIGINT,
			assigned_screen_id BIGINT,
			assigned_employee_id BIGINT,
			schedule_date DATE,
			start_time TIME,
			end_time TIME,
			display_duration_minutes INT,
			price_per_hour DOUBLE PRECISION,
			budget DOUBLE PRECISION,
			route_type TEXT,
			start_lat DOUBLE PRECISION,
			start_lng DOUBLE PRECISION,
			end_lat DOUBLE PRECISION,
			end_lng DOUBLE PRECISION,
			center_lat DOUBLE PRECISION,
			center_lng DOUBLE PRECISION,
			radius_meters INT,
			status TEXT DEFAULT 'active',
			created_by TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (route_id) REFERENCES routes(id) ON DELETE CASCADE
		)`,

		// Telemetry samples from display units
		`CREATE TABLE IF NOT EXISTS screen_sessions (
			id BIGSERIAL PRIMARY KEY,
			assigned_schedule_id BIGINT NOT NULL,
			session_date DATE NOT NULL DEFAULT CURRENT_DATE,
			actual_start_time TEXT,
			actual_end_time TEXT,
			actual_duration_min INT,
			current_lat DOUBLE PRECISION,
			current_lng DOUBLE PRECISION,
			battery_level INT,
			signal_strength INT,
			status TEXT,
			last_update TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			FOREIGN KEY (assigned_schedule_id) REFERENCES active_schedules(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS route_tracking_sessions (
			id TEXT PRIMARY KEY,
			route_id BIGINT NOT NULL,
			user_id TEXT NOT NULL,
			started_at BIGINT NOT NULL,
			FOREIGN KEY (route_id) REFERENCES routes(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_routes_user_id ON routes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_status ON routes(status)`,
		`CREATE INDEX IF NOT EXISTS idx_active_schedules_route_id ON active_schedules(route_id)`,
		`CREATE INDEX IF NOT EXISTS idx_active_schedules_date ON active_schedules(schedule_date)`,
		`CREATE INDEX IF NOT EXISTS idx_active_schedules_employee ON active_schedules(assigned_employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_screen_sessions_schedule ON screen_sessions(assigned_schedule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	logrus.Info("✓ Database migrations completed")
	return nil
}
