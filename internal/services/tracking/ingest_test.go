package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"adroute-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoSchedule = errors.New("schedule not found")

type fakeStore struct {
	owners   map[int64]string
	inserted []models.ScreenSessionRequest
}

func (s *fakeStore) ScheduleOwner(_ context.Context, scheduleID int64) (string, error) {
	owner, ok := s.owners[scheduleID]
	if !ok {
		return "", errNoSchedule
	}
	return owner, nil
}

func (s *fakeStore) InsertScreenSession(_ context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error) {
	s.inserted = append(s.inserted, req)
	return &models.ScreenSession{
		ID:                 int64(len(s.inserted)),
		AssignedScheduleID: scheduleID,
		SessionDate:        req.SessionDate,
		CurrentLat:         req.CurrentLat,
		CurrentLng:         req.CurrentLng,
		Status:             req.Status,
	}, nil
}

type sent struct {
	to    string // user id or "role:<role>"
	event models.Event
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []sent
}

func (b *fakeBroadcaster) BroadcastToUser(userID string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sent{to: userID, event: data.(models.Event)})
}

func (b *fakeBroadcaster) BroadcastToRole(role string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sent{to: "role:" + role, event: data.(models.Event)})
}

func fix(lat, lng float64, ts int64) models.ScreenSessionRequest {
	return models.ScreenSessionRequest{
		SessionDate: "2024-01-16",
		CurrentLat:  &lat,
		CurrentLng:  &lng,
		Timestamp:   ts,
	}
}

func newTestIngestor() (*Ingestor, *fakeStore, *fakeBroadcaster) {
	store := &fakeStore{owners: map[int64]string{1: "user-1", 2: ""}}
	b := &fakeBroadcaster{}
	return NewIngestor(store, b, NewThrottle()), store, b
}

func TestIngest_StoresAndBroadcasts(t *testing.T) {
	ing, store, b := newTestIngestor()

	session, err := ing.Ingest(context.Background(), 1, fix(41.0082, 28.9784, 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1), session.AssignedScheduleID)
	assert.Len(t, store.inserted, 1)

	require.Len(t, b.sent, 2)
	assert.Equal(t, "user-1", b.sent[0].to)
	assert.Equal(t, "role:admin", b.sent[1].to)

	event := b.sent[0].event
	assert.Equal(t, models.EventSessionUpdate, event.Type)
	update, ok := event.Data.(models.SessionUpdate)
	require.True(t, ok)
	assert.Equal(t, int64(1), update.ScheduleID)
	assert.Equal(t, 41.0082, *update.Session.CurrentLat)
}

func TestIngest_ThrottledUpdatesAreStoredButNotBroadcast(t *testing.T) {
	ing, store, b := newTestIngestor()

	_, err := ing.Ingest(context.Background(), 1, fix(41.0, 29.0, 1000))
	require.NoError(t, err)
	_, err = ing.Ingest(context.Background(), 1, fix(41.0, 29.0, 1500))
	require.NoError(t, err)

	assert.Len(t, store.inserted, 2)
	assert.Len(t, b.sent, 2, "only the first fix is pushed")
}

func TestIngest_WithoutPosition(t *testing.T) {
	ing, store, b := newTestIngestor()

	status := "offline"
	_, err := ing.Ingest(context.Background(), 1, models.ScreenSessionRequest{SessionDate: "2024-01-16", Status: &status})
	require.NoError(t, err)

	assert.Len(t, store.inserted, 1)
	assert.Empty(t, b.sent)
}

func TestIngest_UnownedScheduleOnlyReachesAdmins(t *testing.T) {
	ing, _, b := newTestIngestor()

	_, err := ing.Ingest(context.Background(), 2, fix(41.0, 29.0, 1000))
	require.NoError(t, err)

	require.Len(t, b.sent, 1)
	assert.Equal(t, "role:admin", b.sent[0].to)
}

func TestIngest_InvalidPosition(t *testing.T) {
	ing, store, _ := newTestIngestor()
	lat := 41.0

	_, err := ing.Ingest(context.Background(), 1, models.ScreenSessionRequest{CurrentLat: &lat})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = ing.Ingest(context.Background(), 1, fix(91, 29.0, 1000))
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = ing.Ingest(context.Background(), 1, fix(41.0, -181, 1000))
	assert.ErrorIs(t, err, ErrInvalidPosition)

	assert.Empty(t, store.inserted)
}

func TestIngest_UnknownSchedule(t *testing.T) {
	ing, store, _ := newTestIngestor()

	_, err := ing.Ingest(context.Background(), 99, fix(41.0, 29.0, 1000))
	assert.ErrorIs(t, err, errNoSchedule)
	assert.Empty(t, store.inserted)
}
