package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"adroute-backend/internal/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(ctx context.Context, credentialsFile string) (*FCMService, error) {
	return newFCMService(ctx, option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials.
// Used on hosts where a credentials file cannot be mounted.
func NewFCMServiceFromBase64(ctx context.Context, credentialsBase64 string) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(ctx, option.WithCredentialsJSON(credentialsJSON))
}

func newFCMService(ctx context.Context, opt option.ClientOption) (*FCMService, error) {
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// RouteStatusMessage builds the push notification for a route status change
func RouteStatusMessage(tokens []string, route *models.Route) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: route.Title,
			Body:  fmt.Sprintf("Status updated: %s", route.Status.StatusDescription()),
		},
		Data: map[string]string{
			"type":       models.EventRouteStatusChanged,
			"route_id":   strconv.FormatInt(route.ID, 10),
			"status":     string(route.Status),
			"completion": strconv.Itoa(route.Completion),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}
}

// SendRouteStatusNotification tells the owner's devices that their route moved to a new status
func (s *FCMService) SendRouteStatusNotification(ctx context.Context, tokens []string, route *models.Route) error {
	if len(tokens) == 0 {
		return nil
	}

	response, err := s.client.SendEachForMulticast(ctx, RouteStatusMessage(tokens, route))
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"route_id": route.ID,
		"status":   route.Status,
		"success":  response.SuccessCount,
		"failure":  response.FailureCount,
	}).Info("✅ Route status notification sent")
	return nil
}
