package database

import (
	"context"

	"adroute-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// Store binds the query functions to one connection pool so services can
// depend on small interfaces instead of *sqlx.DB
type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) ListActiveSchedules(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error) {
	return ListActiveSchedules(ctx, s.DB, filter)
}

func (s *Store) ScheduleOwner(ctx context.Context, scheduleID int64) (string, error) {
	return ScheduleOwner(ctx, s.DB, scheduleID)
}

func (s *Store) InsertScreenSession(ctx context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error) {
	return InsertScreenSession(ctx, s.DB, scheduleID, req)
}

func (s *Store) GetRouteForUser(ctx context.Context, id int64, userID string) (*models.Route, error) {
	return GetRouteForUser(ctx, s.DB, id, userID)
}

func (s *Store) CreateTrackingSession(ctx context.Context, session models.TrackingSession) error {
	return CreateTrackingSession(ctx, s.DB, session)
}
