package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"adroute-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetUser loads a user by id
func GetUser(ctx context.Context, db *sqlx.DB, id string) (*models.User, error) {
	var user models.User
	query := `SELECT id, phone, name, email, company_name, role, created_at, updated_at FROM users WHERE id = $1`
	if err := db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser applies the profile fields present in req
func UpdateUser(ctx context.Context, db *sqlx.DB, id string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.CompanyName != nil {
		user.CompanyName = req.CompanyName
	}
	user.UpdatedAt = time.Now().Unix()

	query := `UPDATE users SET name = $1, email = $2, company_name = $3, updated_at = $4 WHERE id = $5`
	if _, err := db.ExecContext(ctx, query, user.Name, user.Email, user.CompanyName, user.UpdatedAt, id); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the account; routes, schedules and tokens cascade
func DeleteUser(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertFCMToken registers a device token, moving it to userID if it already exists
func UpsertFCMToken(ctx context.Context, db *sqlx.DB, userID, token, deviceType string) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (token)
		DO UPDATE SET user_id = EXCLUDED.user_id,
		              device_type = EXCLUDED.device_type,
		              updated_at = EXCLUDED.updated_at`
	if _, err := db.ExecContext(ctx, query, userID, token, deviceType, now); err != nil {
		return fmt.Errorf("failed to save FCM token: %w", err)
	}
	return nil
}

// GetUserFCMTokens returns every registered device token of a user
func GetUserFCMTokens(ctx context.Context, db *sqlx.DB, userID string) ([]string, error) {
	var tokens []string
	if err := db.SelectContext(ctx, &tokens, `SELECT token FROM fcm_tokens WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to get FCM tokens: %w", err)
	}
	return tokens, nil
}
