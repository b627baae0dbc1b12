// Package tracking stores display-unit telemetry and pushes it to map viewers.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adroute-backend/internal/metrics"
	"adroute-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// ErrInvalidPosition is returned when only one of lat/lng is present or a value is out of range
var ErrInvalidPosition = errors.New("current_lat and current_lng must be given together and within range")

// SessionStore persists screen sessions
type SessionStore interface {
	ScheduleOwner(ctx context.Context, scheduleID int64) (string, error)
	InsertScreenSession(ctx context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error)
}

// Broadcaster delivers live events; deliveries to offline users are dropped
type Broadcaster interface {
	BroadcastToUser(userID string, data interface{})
	BroadcastToRole(role string, data interface{})
}

// Ingestor stores telemetry samples and broadcasts the significant ones
type Ingestor struct {
	store       SessionStore
	broadcaster Broadcaster
	throttle    *Throttle
}

func NewIngestor(store SessionStore, broadcaster Broadcaster, throttle *Throttle) *Ingestor {
	return &Ingestor{store: store, broadcaster: broadcaster, throttle: throttle}
}

// Ingest stores one sample for scheduleID. Samples with a position are pushed
// to the route owner and to admins unless the throttle filters them out.
func (i *Ingestor) Ingest(ctx context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error) {
	if err := validatePosition(req); err != nil {
		return nil, err
	}

	owner, err := i.store.ScheduleOwner(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	session, err := i.store.InsertScreenSession(ctx, scheduleID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	metrics.ScreenSessionsIngestedTotal.Inc()

	pos, ok := session.Position()
	if !ok {
		return session, nil
	}
	timestamp := req.Timestamp
	if timestamp <= 0 {
		timestamp = time.Now().UnixMilli()
	}
	if !i.throttle.ShouldBroadcast(scheduleID, pos.Lat, pos.Lng, timestamp) {
		return session, nil
	}

	event := models.NewEvent(models.EventSessionUpdate, models.SessionUpdate{
		ScheduleID: scheduleID,
		Session:    *session,
	})
	if owner != "" {
		i.broadcaster.BroadcastToUser(owner, event)
	}
	i.broadcaster.BroadcastToRole(models.RoleAdmin, event)

	logrus.WithFields(logrus.Fields{
		"schedule_id": scheduleID,
		"lat":         pos.Lat,
		"lng":         pos.Lng,
	}).Debug("📤 Broadcast session update")
	return session, nil
}

func validatePosition(req models.ScreenSessionRequest) error {
	if (req.CurrentLat == nil) != (req.CurrentLng == nil) {
		return ErrInvalidPosition
	}
	if req.CurrentLat == nil {
		return nil
	}
	if *req.CurrentLat < -90 || *req.CurrentLat > 90 || *req.CurrentLng < -180 || *req.CurrentLng > 180 {
		return ErrInvalidPosition
	}
	return nil
}
