package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adroute-backend/internal/database"
	"adroute-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrackingStore struct {
	route     *models.Route
	getErr    error
	createErr error
	sessions  []models.TrackingSession
}

func (s *fakeTrackingStore) GetRouteForUser(_ context.Context, id int64, userID string) (*models.Route, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.route == nil || s.route.ID != id || s.route.UserID != userID {
		return nil, database.ErrNotFound
	}
	return s.route, nil
}

func (s *fakeTrackingStore) CreateTrackingSession(_ context.Context, session models.TrackingSession) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.sessions = append(s.sessions, session)
	return nil
}

func startTracking(store TrackingStore, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/api/routes/{id}/tracking/start", StartRouteTracking(store))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodPost, target, customer))
	return rec
}

func TestStartRouteTracking_Eligibility(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name   string
		route  models.Route
		reason string
	}{
		{"not active", models.Route{Status: models.RouteStatusScheduled, AssignedDate: &past}, models.TrackingStatusNotActive},
		{"paused", models.Route{Status: models.RouteStatusPaused, AssignedDate: &past}, models.TrackingStatusNotActive},
		{"active without date", models.Route{Status: models.RouteStatusActive}, models.TrackingAwaitingSchedule},
		{"active before start", models.Route{Status: models.RouteStatusActive, AssignedDate: &future}, models.TrackingNotStartedYet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := tt.route
			route.ID, route.UserID = 7, "user-1"
			store := &fakeTrackingStore{route: &route}

			rec := startTracking(store, "/api/routes/7/tracking/start")

			require.Equal(t, http.StatusConflict, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.reason, body["reason"])
			assert.Empty(t, store.sessions)
		})
	}
}

func TestStartRouteTracking_Eligible(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	store := &fakeTrackingStore{route: &models.Route{
		ID: 7, UserID: "user-1", Status: models.RouteStatusActive, AssignedDate: &started,
	}}

	rec := startTracking(store, "/api/routes/7/tracking/start")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.sessions, 1)
	session := store.sessions[0]
	assert.Equal(t, int64(7), session.RouteID)
	assert.Equal(t, "user-1", session.UserID)
	assert.NotEmpty(t, session.ID)

	var body struct {
		Success bool                   `json:"success"`
		Data    models.TrackingSession `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, session, body.Data)
}

func TestStartRouteTracking_Errors(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	active := &models.Route{ID: 7, UserID: "user-1", Status: models.RouteStatusActive, AssignedDate: &started}

	tests := []struct {
		name   string
		store  *fakeTrackingStore
		target string
		want   int
	}{
		{"bad id", &fakeTrackingStore{route: active}, "/api/routes/abc/tracking/start", http.StatusBadRequest},
		{"someone else's route", &fakeTrackingStore{route: &models.Route{ID: 7, UserID: "user-2"}}, "/api/routes/7/tracking/start", http.StatusNotFound},
		{"lookup fails", &fakeTrackingStore{getErr: errors.New("db down")}, "/api/routes/7/tracking/start", http.StatusInternalServerError},
		{"insert fails", &fakeTrackingStore{route: active, createErr: errors.New("db down")}, "/api/routes/7/tracking/start", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, startTracking(tt.store, tt.target).Code)
		})
	}
}
