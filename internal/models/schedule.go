package models

import "fmt"

// Route type discriminators as sent by the scheduling back office
const (
	RouteTypeFixed = "fixed_route"
	RouteTypeArea  = "area_route"
)

// DefaultAreaRadiusMeters is used when an area route has no radius
const DefaultAreaRadiusMeters = 1000

// Schedule geometry skip reasons
const (
	SkipUnknownRouteType        = "unknown_route_type"
	SkipMissingFixedCoordinates = "missing_fixed_coordinates"
	SkipMissingAreaCenter       = "missing_area_center"
)

// Coordinate is a WGS84 latitude/longitude pair
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteGeometry is either a FixedRoute or an AreaRoute
type RouteGeometry interface {
	RouteType() string
}

// FixedRoute is a point-to-point route
type FixedRoute struct {
	Start Coordinate
	End   Coordinate
}

func (FixedRoute) RouteType() string { return RouteTypeFixed }

// AreaRoute is a radius around a centre point
type AreaRoute struct {
	Center       Coordinate
	RadiusMeters int
}

func (AreaRoute) RouteType() string { return RouteTypeArea }

// ScheduleRecord is the flat row/wire shape of an active schedule.
// Geometry fields are optional; Resolve turns them into a RouteGeometry.
type ScheduleRecord struct {
	ID                     int64    `json:"id" db:"id"`
	RouteID                *int64   `json:"route_id" db:"route_id"`
	AssignedPlanID         *int64   `json:"assigned_plan_id" db:"assigned_plan_id"`
	AssignedScreenID       *int64   `json:"assigned_screen_id" db:"assigned_screen_id"`
	AssignedEmployeeID     *int64   `json:"assigned_employee_id" db:"assigned_employee_id"`
	ScheduleDate           *string  `json:"schedule_date" db:"schedule_date"` // YYYY-MM-DD
	StartTime              *string  `json:"start_time" db:"start_time"`       // HH:MM:SS
	EndTime                *string  `json:"end_time" db:"end_time"`
	DisplayDurationMinutes *int     `json:"display_duration_minutes" db:"display_duration_minutes"`
	PricePerHour           *float64 `json:"price_per_hour" db:"price_per_hour"`
	Budget                 *float64 `json:"budget" db:"budget"`
	RouteType              *string  `json:"route_type" db:"route_type"`
	StartLat               *float64 `json:"start_lat" db:"start_lat"`
	StartLng               *float64 `json:"start_lng" db:"start_lng"`
	EndLat                 *float64 `json:"end_lat" db:"end_lat"`
	EndLng                 *float64 `json:"end_lng" db:"end_lng"`
	CenterLat              *float64 `json:"center_lat" db:"center_lat"`
	CenterLng              *float64 `json:"center_lng" db:"center_lng"`
	RadiusMeters           *int     `json:"radius_meters" db:"radius_meters"`
	Status                 *string  `json:"status" db:"status"`
	CreatedBy              *string  `json:"created_by" db:"created_by"`
	CreatedAt              int64    `json:"created_at" db:"created_at"`

	ScreenSessions []ScreenSession `json:"screenSessions" db:"-"`
}

// ScreenSession is one telemetry sample from a display unit during a schedule
type ScreenSession struct {
	ID                 int64    `json:"id" db:"id"`
	AssignedScheduleID int64    `json:"assignedScheduleId" db:"assigned_schedule_id"`
	SessionDate        string   `json:"sessionDate" db:"session_date"`
	ActualStartTime    *string  `json:"actualStartTime,omitempty" db:"actual_start_time"`
	ActualEndTime      *string  `json:"actualEndTime,omitempty" db:"actual_end_time"`
	ActualDurationMin  *int     `json:"actualDurationMin,omitempty" db:"actual_duration_min"`
	CurrentLat         *float64 `json:"currentLat,omitempty" db:"current_lat"` // nil means no fix yet
	CurrentLng         *float64 `json:"currentLng,omitempty" db:"current_lng"`
	BatteryLevel       *int     `json:"batteryLevel,omitempty" db:"battery_level"`
	SignalStrength     *int     `json:"signalStrength,omitempty" db:"signal_strength"`
	Status             *string  `json:"status,omitempty" db:"status"`
	LastUpdate         *string  `json:"lastUpdate,omitempty" db:"last_update"`
}

// Position returns the session's fix, if it has one
func (s ScreenSession) Position() (Coordinate, bool) {
	if s.CurrentLat == nil || s.CurrentLng == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *s.CurrentLat, Lng: *s.CurrentLng}, true
}

// ActiveSchedule is a schedule whose geometry has been resolved into a variant.
// Geometry is nil when the record could not be resolved; SkipReason says why.
type ActiveSchedule struct {
	ID         int64
	RouteID    *int64
	Status     string
	Geometry   RouteGeometry
	SkipReason string
	Sessions   []ScreenSession
}

// Resolve converts the flat record into a schedule with typed geometry
func (r ScheduleRecord) Resolve() ActiveSchedule {
	s := ActiveSchedule{
		ID:       r.ID,
		RouteID:  r.RouteID,
		Sessions: r.ScreenSessions,
	}
	if r.Status != nil {
		s.Status = *r.Status
	}

	routeType := ""
	if r.RouteType != nil {
		routeType = *r.RouteType
	}

	switch routeType {
	case RouteTypeFixed:
		if r.StartLat == nil || r.StartLng == nil || r.EndLat == nil || r.EndLng == nil {
			s.SkipReason = SkipMissingFixedCoordinates
			return s
		}
		s.Geometry = FixedRoute{
			Start: Coordinate{Lat: *r.StartLat, Lng: *r.StartLng},
			End:   Coordinate{Lat: *r.EndLat, Lng: *r.EndLng},
		}
	case RouteTypeArea:
		if r.CenterLat == nil || r.CenterLng == nil {
			s.SkipReason = SkipMissingAreaCenter
			return s
		}
		radius := DefaultAreaRadiusMeters
		if r.RadiusMeters != nil {
			radius = *r.RadiusMeters
		}
		s.Geometry = AreaRoute{
			Center:       Coordinate{Lat: *r.CenterLat, Lng: *r.CenterLng},
			RadiusMeters: radius,
		}
	default:
		s.SkipReason = SkipUnknownRouteType
	}
	return s
}

// ResolveAll resolves a batch of records, keeping input order
func ResolveAll(records []ScheduleRecord) []ActiveSchedule {
	out := make([]ActiveSchedule, len(records))
	for i, r := range records {
		out[i] = r.Resolve()
	}
	return out
}

// ScheduleFilter narrows the active schedule listing (date, status, employee)
type ScheduleFilter struct {
	Date       string // YYYY-MM-DD, empty for any date
	Status     string
	EmployeeID *int64
	UserID     string // Owner of the routes; empty for admins
}

// CreateScheduleRequest is the request body for POST /api/admin/schedules
type CreateScheduleRequest struct {
	RouteID                int64    `json:"route_id"`
	AssignedScreenID       *int64   `json:"assigned_screen_id,omitempty"`
	AssignedEmployeeID     *int64   `json:"assigned_employee_id,omitempty"`
	ScheduleDate           string   `json:"schedule_date"`
	StartTime              *string  `json:"start_time,omitempty"`
	EndTime                *string  `json:"end_time,omitempty"`
	DisplayDurationMinutes *int     `json:"display_duration_minutes,omitempty"`
	PricePerHour           *float64 `json:"price_per_hour,omitempty"`
	Budget                 *float64 `json:"budget,omitempty"`
	RouteType              string   `json:"route_type"`
	StartLat               *float64 `json:"start_lat,omitempty"`
	StartLng               *float64 `json:"start_lng,omitempty"`
	EndLat                 *float64 `json:"end_lat,omitempty"`
	EndLng                 *float64 `json:"end_lng,omitempty"`
	CenterLat              *float64 `json:"center_lat,omitempty"`
	CenterLng              *float64 `json:"center_lng,omitempty"`
	RadiusMeters           *int     `json:"radius_meters,omitempty"`
}

// Validate checks the discriminator and that the matching geometry is complete
func (r CreateScheduleRequest) Validate() error {
	if r.RouteID <= 0 {
		return fmt.Errorf("route_id is required")
	}
	if r.ScheduleDate == "" {
		return fmt.Errorf("schedule_date is required")
	}
	switch r.RouteType {
	case RouteTypeFixed:
		if r.StartLat == nil || r.StartLng == nil || r.EndLat == nil || r.EndLng == nil {
			return fmt.Errorf("fixed_route requires start_lat, start_lng, end_lat and end_lng")
		}
		if r.CenterLat != nil || r.CenterLng != nil || r.RadiusMeters != nil {
			return fmt.Errorf("fixed_route must not carry area fields")
		}
	case RouteTypeArea:
		if r.CenterLat == nil || r.CenterLng == nil {
			return fmt.Errorf("area_route requires center_lat and center_lng")
		}
		if r.StartLat != nil || r.StartLng != nil || r.EndLat != nil || r.EndLng != nil {
			return fmt.Errorf("area_route must not carry fixed route fields")
		}
		if r.RadiusMeters != nil && *r.RadiusMeters <= 0 {
			return fmt.Errorf("radius_meters must be positive")
		}
	default:
		return fmt.Errorf("route_type must be %q or %q", RouteTypeFixed, RouteTypeArea)
	}
	return nil
}

// ScreenSessionRequest is a telemetry sample posted by a display unit
type ScreenSessionRequest struct {
	SessionDate     string   `json:"session_date"`
	ActualStartTime *string  `json:"actual_start_time,omitempty"`
	ActualEndTime   *string  `json:"actual_end_time,omitempty"`
	CurrentLat      *float64 `json:"current_lat,omitempty"`
	CurrentLng      *float64 `json:"current_lng,omitempty"`
	BatteryLevel    *int     `json:"battery_level,omitempty"`
	SignalStrength  *int     `json:"signal_strength,omitempty"`
	Status          *string  `json:"status,omitempty"`
	Timestamp       int64    `json:"timestamp"` // Client-side, milliseconds
}
