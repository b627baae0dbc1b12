package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"adroute-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testSecret = "test-secret"

type recordingIngestor struct {
	mu    sync.Mutex
	calls []int64
}

func (r *recordingIngestor) Ingest(_ context.Context, scheduleID int64, req models.ScreenSessionRequest) (*models.ScreenSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, scheduleID)
	return &models.ScreenSession{AssignedScheduleID: scheduleID}, nil
}

func (r *recordingIngestor) scheduleIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.calls...)
}

type testEnv struct {
	hub    *Hub
	srv    *httptest.Server
	cancel context.CancelFunc
}

func newTestEnv(t *testing.T, ingestor SessionIngestor) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ingestor)
	go hub.Run(ctx)

	srv := httptest.NewServer(HandleWebSocket(hub, testSecret))
	return &testEnv{hub: hub, srv: srv, cancel: cancel}
}

// stop shuts the hub down first so every pump exits before the server closes
func (e *testEnv) stop() {
	e.cancel()
	<-e.hub.Done()
	e.srv.Close()
}

func (e *testEnv) dial(t *testing.T, userID, role string) *websocket.Conn {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_BroadcastToUser(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t, nil)
	defer env.stop()

	conn := env.dial(t, "user-1", models.RoleCustomer)
	defer conn.Close()
	other := env.dial(t, "user-2", models.RoleCustomer)
	defer other.Close()

	require.Eventually(t, func() bool { return env.hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, env.hub.IsUserConnected("user-1"))

	env.hub.BroadcastToUser("user-1", models.NewEvent(models.EventRouteStatusChanged, models.RouteStatusChange{
		RouteID: 7,
		Status:  models.RouteStatusActive,
	}))

	event := readEvent(t, conn)
	assert.Equal(t, models.EventRouteStatusChanged, event["type"])
	assert.NotEmpty(t, event["timestamp"])
	data := event["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["route_id"])
	assert.Equal(t, "active", data["status"])

	// user-2 gets nothing
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_BroadcastToRole(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t, nil)
	defer env.stop()

	admin := env.dial(t, "admin-1", models.RoleAdmin)
	defer admin.Close()
	customer := env.dial(t, "user-1", models.RoleCustomer)
	defer customer.Close()
	require.Eventually(t, func() bool { return env.hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	env.hub.BroadcastToRole(models.RoleAdmin, models.NewEvent(models.EventSessionUpdate, models.SessionUpdate{ScheduleID: 3}))

	event := readEvent(t, admin)
	assert.Equal(t, models.EventSessionUpdate, event["type"])

	require.NoError(t, customer.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := customer.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PingPong(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t, nil)
	defer env.stop()

	conn := env.dial(t, "user-1", models.RoleCustomer)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "ping"}))
	assert.Equal(t, models.EventPong, readEvent(t, conn)["type"])
}

func TestHub_LocationUpdate(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ingestor := &recordingIngestor{}
	env := newTestEnv(t, ingestor)
	defer env.stop()

	customer := env.dial(t, "user-1", models.RoleCustomer)
	defer customer.Close()
	employee := env.dial(t, "emp-1", models.RoleEmployee)
	defer employee.Close()
	require.Eventually(t, func() bool { return env.hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	update := map[string]interface{}{
		"type": "location_update",
		"data": map[string]interface{}{
			"schedule_id":  5,
			"session_date": "2024-01-16",
			"current_lat":  41.0082,
			"current_lng":  28.9784,
		},
	}

	// Customers cannot report telemetry
	require.NoError(t, customer.WriteJSON(update))
	require.NoError(t, employee.WriteJSON(update))

	require.Eventually(t, func() bool { return len(ingestor.scheduleIDs()) == 1 }, time.Second, 10*time.Millisecond)
	// Give a wrongly accepted customer update time to land
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []int64{5}, ingestor.scheduleIDs())
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t, nil)
	defer env.stop()

	conn := env.dial(t, "user-1", models.RoleCustomer)
	require.Eventually(t, func() bool { return env.hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, env.hub.IsUserConnected("user-1"))

	// Broadcasting to a user who left is a no-op
	env.hub.BroadcastToUser("user-1", models.NewEvent(models.EventPong, nil))
}

func TestHandleWebSocket_RejectsBadToken(t *testing.T) {
	env := newTestEnv(t, nil)
	defer env.stop()

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHub_BroadcastAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t, nil)
	env.stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			env.hub.BroadcastToUser("user-1", models.NewEvent(models.EventPong, nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastToUser blocked after the hub stopped")
	}
}
