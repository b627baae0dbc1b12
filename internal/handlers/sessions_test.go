package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"adroute-backend/internal/database"
	"adroute-backend/internal/middleware"
	"adroute-backend/internal/models"
	"adroute-backend/internal/services/tracking"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestor struct {
	err        error
	scheduleID int64
	req        models.ScreenSessionRequest
}

func (f *fakeIngestor) Ingest(_ context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error) {
	f.scheduleID = scheduleID
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ScreenSession{
		ID:                 1,
		AssignedScheduleID: scheduleID,
		SessionDate:        req.SessionDate,
		CurrentLat:         req.CurrentLat,
		CurrentLng:         req.CurrentLng,
	}, nil
}

// serveSessions routes through chi so {id} is populated
func serveSessions(ingestor SessionIngestor, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/api/schedules/{id}/sessions", IngestScreenSession(ingestor))

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), middleware.UserClaims{UserID: "emp-1", Role: models.RoleEmployee}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIngestScreenSession(t *testing.T) {
	ingestor := &fakeIngestor{}
	rec := serveSessions(ingestor, "/api/schedules/5/sessions",
		`{"session_date":"2024-01-16","current_lat":41.0082,"current_lng":28.9784,"battery_level":80,"timestamp":1705395600000}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(5), ingestor.scheduleID)
	assert.Equal(t, int64(1705395600000), ingestor.req.Timestamp)
	require.NotNil(t, ingestor.req.BatteryLevel)
	assert.Equal(t, 80, *ingestor.req.BatteryLevel)

	var body struct {
		Success bool                 `json:"success"`
		Data    models.ScreenSession `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(5), body.Data.AssignedScheduleID)
}

func TestIngestScreenSession_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		err    error
		status int
	}{
		{"bad id", "/api/schedules/abc/sessions", `{}`, nil, http.StatusBadRequest},
		{"bad body", "/api/schedules/5/sessions", `{`, nil, http.StatusBadRequest},
		{"half a position", "/api/schedules/5/sessions", `{}`, tracking.ErrInvalidPosition, http.StatusBadRequest},
		{"unknown schedule", "/api/schedules/5/sessions", `{}`, database.ErrNotFound, http.StatusNotFound},
		{"store failure", "/api/schedules/5/sessions", `{}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveSessions(&fakeIngestor{err: tt.err}, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
