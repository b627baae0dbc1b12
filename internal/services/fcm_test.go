package services

import (
	"context"
	"testing"

	"adroute-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteStatusMessage(t *testing.T) {
	route := &models.Route{ID: 42, Title: "Kadıköy weekend", Status: models.RouteStatusActive, Completion: 40}
	msg := RouteStatusMessage([]string{"a", "b"}, route)

	assert.Equal(t, []string{"a", "b"}, msg.Tokens)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "Kadıköy weekend", msg.Notification.Title)
	assert.Equal(t, "Status updated: Active", msg.Notification.Body)
	assert.Equal(t, map[string]string{
		"type":       models.EventRouteStatusChanged,
		"route_id":   "42",
		"status":     "active",
		"completion": "40",
	}, msg.Data)
	assert.Equal(t, "high", msg.Android.Priority)
}

func TestSendRouteStatusNotification_NoTokens(t *testing.T) {
	// No devices registered: nothing is sent, so no client is needed
	s := &FCMService{}
	assert.NoError(t, s.SendRouteStatusNotification(context.Background(), nil, &models.Route{ID: 1}))
}

func TestNewFCMServiceFromBase64_InvalidEncoding(t *testing.T) {
	_, err := NewFCMServiceFromBase64(context.Background(), "%%% not base64")
	assert.Error(t, err)
}
