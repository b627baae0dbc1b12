package models

import (
	"time"

	"github.com/lib/pq"
)

// Route represents a customer's advertising campaign moving through the workflow
type Route struct {
	ID                 int64         `json:"id" db:"id"`
	UserID             string        `json:"user_id" db:"user_id"`
	Title              string        `json:"title" db:"title"`
	Description        string        `json:"description" db:"description"`
	Status             RouteStatus   `json:"status" db:"status"`
	AssignedDate       *time.Time    `json:"assigned_date,omitempty" db:"assigned_date"` // Schedule start instant
	Completion         int           `json:"completion" db:"completion"`                 // 0-100
	ShareWithEmployees bool          `json:"share_with_employees" db:"share_with_employees"`
	SharedEmployeeIDs  pq.Int64Array `json:"shared_employee_ids" db:"shared_employee_ids"`
	CreatedAt          int64         `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt          int64         `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// Tracking eligibility reasons
const (
	TrackingEligible         = "eligible"
	TrackingStatusNotActive  = "status_not_active"
	TrackingAwaitingSchedule = "awaiting_schedule"
	TrackingNotStartedYet    = "not_started_yet"
)

// TrackingEligibility explains whether live tracking may start right now
type TrackingEligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// LiveTrackingEligibility combines the status predicate with the schedule start.
// An active route without an assigned date is reported as awaiting schedule.
func (r *Route) LiveTrackingEligibility(now time.Time) TrackingEligibility {
	if !r.Status.CanStartLiveTracking() {
		return TrackingEligibility{Reason: TrackingStatusNotActive}
	}
	if r.AssignedDate == nil {
		return TrackingEligibility{Reason: TrackingAwaitingSchedule}
	}
	if now.Before(*r.AssignedDate) {
		return TrackingEligibility{Reason: TrackingNotStartedYet}
	}
	return TrackingEligibility{Eligible: true, Reason: TrackingEligible}
}

// ProgressLevel buckets a completion percentage for the progress bar
type ProgressLevel string

const (
	ProgressLow    ProgressLevel = "low"
	ProgressMedium ProgressLevel = "medium"
	ProgressHigh   ProgressLevel = "high"
	ProgressDone   ProgressLevel = "done"
)

// ClampCompletion keeps a completion value within 0-100
func ClampCompletion(completion int) int {
	if completion < 0 {
		return 0
	}
	if completion > 100 {
		return 100
	}
	return completion
}

// ProgressLevelFor returns the progress bucket for a completion value
func ProgressLevelFor(completion int) ProgressLevel {
	c := ClampCompletion(completion)
	switch {
	case c >= 100:
		return ProgressDone
	case c >= 67:
		return ProgressHigh
	case c >= 34:
		return ProgressMedium
	default:
		return ProgressLow
	}
}

// RouteResponse is a route plus everything the client derives from its status
type RouteResponse struct {
	Route
	StatusFlags   StatusFlags   `json:"status_flags"`
	ProgressLevel ProgressLevel `json:"progress_level"`
}

// RouteDetailResponse adds the workflow checklist and tracking eligibility
type RouteDetailResponse struct {
	RouteResponse
	WorkflowSteps []WorkflowStep      `json:"workflow_steps"`
	LiveTracking  TrackingEligibility `json:"live_tracking"`
}

// ToRouteResponse decorates a route with its derived status flags
func (r *Route) ToRouteResponse() RouteResponse {
	return RouteResponse{
		Route:         *r,
		StatusFlags:   r.Status.Flags(),
		ProgressLevel: ProgressLevelFor(r.Completion),
	}
}

// ToRouteDetailResponse builds the detail view at the given instant
func (r *Route) ToRouteDetailResponse(now time.Time) RouteDetailResponse {
	return RouteDetailResponse{
		RouteResponse: r.ToRouteResponse(),
		WorkflowSteps: r.Status.WorkflowSteps(),
		LiveTracking:  r.LiveTrackingEligibility(now),
	}
}

// CreateRouteRequest is the request body for POST /api/routes
type CreateRouteRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	AssignedDate       *time.Time `json:"assigned_date,omitempty"`
	ShareWithEmployees bool       `json:"share_with_employees"`
	SharedEmployeeIDs  []int64    `json:"shared_employee_ids,omitempty"`
}

// UpdateRouteRequest is the request body for PATCH /api/routes/:id
type UpdateRouteRequest struct {
	Title              *string    `json:"title,omitempty"`
	Description        *string    `json:"description,omitempty"`
	AssignedDate       *time.Time `json:"assigned_date,omitempty"`
	ShareWithEmployees *bool      `json:"share_with_employees,omitempty"`
	SharedEmployeeIDs  []int64    `json:"shared_employee_ids,omitempty"`
}

// UpdateRouteStatusRequest is the request body for PATCH /api/admin/routes/:id/status
type UpdateRouteStatusRequest struct {
	Status     string `json:"status"`
	Completion *int   `json:"completion,omitempty"`
}

// TrackingSession is created when the owner starts live tracking for an eligible route
type TrackingSession struct {
	ID        string `json:"id" db:"id"`
	RouteID   int64  `json:"route_id" db:"route_id"`
	UserID    string `json:"user_id" db:"user_id"`
	StartedAt int64  `json:"started_at" db:"started_at"`
}
