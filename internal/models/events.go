package models

import "time"

// Live push message types
const (
	EventDirectionPolyline  = "direction_polyline"
	EventRouteStatusChanged = "route_status_changed"
	EventSessionUpdate      = "session_update"
	EventPong               = "pong"
)

// Event is the envelope of every message pushed over the WebSocket
type Event struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps an event with the current time
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// RouteStatusChange is the payload of route_status_changed
type RouteStatusChange struct {
	RouteID       int64         `json:"route_id"`
	Status        RouteStatus   `json:"status"`
	Description   string        `json:"description"`
	Color         Color         `json:"color"`
	Completion    int           `json:"completion"`
	ProgressLevel ProgressLevel `json:"progress_level"`
}

// SessionUpdate is the payload of session_update
type SessionUpdate struct {
	ScheduleID int64         `json:"schedule_id"`
	Session    ScreenSession `json:"session"`
}
