// Package projection turns active schedules into map primitives: point
// annotations, line overlays, area circles and a viewport framing them.
//
// Projection never fails. A schedule whose geometry is incomplete is skipped
// and reported in Overlay.Skipped; the rest of the batch is still drawn.
package projection

import (
	"sync"

	"adroute-backend/internal/metrics"
	"adroute-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// AnnotationKind identifies the marker drawn for an annotation
type AnnotationKind string

const (
	AnnotationStart    AnnotationKind = "start"
	AnnotationEnd      AnnotationKind = "end"
	AnnotationWaypoint AnnotationKind = "waypoint"
)

// PolylineKind separates planned route lines from recorded tracks
type PolylineKind string

const (
	PolylineDirection PolylineKind = "direction" // Planned start -> end line
	PolylineSession   PolylineKind = "session"   // Recorded screen session trail
)

// Annotation is a point marker owned by a schedule
type Annotation struct {
	Coordinate models.Coordinate `json:"coordinate"`
	Kind       AnnotationKind    `json:"kind"`
	ScheduleID int64             `json:"schedule_id"`
	RouteID    *int64            `json:"route_id,omitempty"`
}

// Polyline is an ordered list of points owned by a schedule
type Polyline struct {
	Points     []models.Coordinate `json:"points"`
	Kind       PolylineKind        `json:"kind"`
	ScheduleID int64               `json:"schedule_id"`
}

// Circle is the coverage area of an area route
type Circle struct {
	Center       models.Coordinate `json:"center"`
	RadiusMeters int               `json:"radius_meters"`
	ScheduleID   int64             `json:"schedule_id"`
}

// SkippedSchedule records a schedule whose geometry could not be drawn
type SkippedSchedule struct {
	ScheduleID int64  `json:"schedule_id"`
	Reason     string `json:"reason"`
}

// Overlay is the result of a projection. Direction polylines that arrive
// asynchronously are appended under lock, so readers that may race with
// pending lookups should use Snapshot or Publish.
type Overlay struct {
	Annotations []Annotation
	Polylines   []Polyline
	Circles     []Circle
	Skipped     []SkippedSchedule

	mu        sync.Mutex
	inFlight  int  // direction lookups not yet settled
	published bool // set once by Publish
}

// Snapshot is an immutable copy of an overlay, safe to serialize
type Snapshot struct {
	Annotations []Annotation      `json:"annotations"`
	Polylines   []Polyline        `json:"polylines"`
	Circles     []Circle          `json:"circles"`
	Skipped     []SkippedSchedule `json:"skipped"`
}

// Snapshot copies the overlay under lock
func (o *Overlay) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.copyLocked()
}

// Publish copies the overlay and marks the cutover for direction lookups.
// It returns the number of lookups that had not settled at that moment: each
// of their polylines is missing from the snapshot and is handed to onArrive
// instead. A line that settled earlier is in the snapshot and never streamed.
func (o *Overlay) Publish() (Snapshot, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = true
	return o.copyLocked(), o.inFlight
}

func (o *Overlay) copyLocked() Snapshot {
	return Snapshot{
		Annotations: append([]Annotation{}, o.Annotations...),
		Polylines:   append([]Polyline{}, o.Polylines...),
		Circles:     append([]Circle{}, o.Circles...),
		Skipped:     append([]SkippedSchedule{}, o.Skipped...),
	}
}

func (o *Overlay) beginLookup() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight++
}

// settleLookup records a finished lookup and its line, if any. It reports
// whether the line landed after Publish and so still has to be delivered.
func (o *Overlay) settleLookup(line *Polyline) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight--
	if line == nil {
		return false
	}
	o.Polylines = append(o.Polylines, *line)
	return o.published
}

// PolylinesOfKind returns the polylines of one kind, in insertion order
func (s Snapshot) PolylinesOfKind(kind PolylineKind) []Polyline {
	var out []Polyline
	for _, p := range s.Polylines {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Coordinates flattens every drawn point for viewport computation
func (s Snapshot) Coordinates() []models.Coordinate {
	var coords []models.Coordinate
	for _, a := range s.Annotations {
		coords = append(coords, a.Coordinate)
	}
	for _, p := range s.Polylines {
		coords = append(coords, p.Points...)
	}
	for _, c := range s.Circles {
		coords = append(coords, c.Center)
	}
	return coords
}

// Selection is the set of route ids the caller wants to see.
// An empty selection means every schedule.
type Selection map[int64]struct{}

// NewSelection builds a selection from route ids
func NewSelection(routeIDs ...int64) Selection {
	sel := make(Selection, len(routeIDs))
	for _, id := range routeIDs {
		sel[id] = struct{}{}
	}
	return sel
}

// Includes reports whether a schedule belongs to the selection.
// Schedules without a route id only show up when nothing is selected.
func (sel Selection) Includes(s models.ActiveSchedule) bool {
	if len(sel) == 0 {
		return true
	}
	if s.RouteID == nil {
		return false
	}
	_, ok := sel[*s.RouteID]
	return ok
}

// Filter keeps the schedules included in the selection, preserving order
func Filter(schedules []models.ActiveSchedule, sel Selection) []models.ActiveSchedule {
	out := make([]models.ActiveSchedule, 0, len(schedules))
	for _, s := range schedules {
		if sel.Includes(s) {
			out = append(out, s)
		}
	}
	return out
}

// Project builds the overlay for the selected schedules. Fixed routes get a
// straight two-point direction line; use ProjectAsync to fetch walking paths.
func Project(schedules []models.ActiveSchedule, sel Selection) *Overlay {
	return project(Filter(schedules, sel), true)
}

func project(schedules []models.ActiveSchedule, straightDirections bool) *Overlay {
	metrics.ProjectionsTotal.Inc()

	o := &Overlay{
		Annotations: []Annotation{},
		Polylines:   []Polyline{},
		Circles:     []Circle{},
		Skipped:     []SkippedSchedule{},
	}

	for _, s := range schedules {
		switch g := s.Geometry.(type) {
		case models.FixedRoute:
			o.Annotations = append(o.Annotations,
				Annotation{Coordinate: g.Start, Kind: AnnotationStart, ScheduleID: s.ID, RouteID: s.RouteID},
				Annotation{Coordinate: g.End, Kind: AnnotationEnd, ScheduleID: s.ID, RouteID: s.RouteID},
			)
			if straightDirections {
				o.Polylines = append(o.Polylines, Polyline{
					Points:     []models.Coordinate{g.Start, g.End},
					Kind:       PolylineDirection,
					ScheduleID: s.ID,
				})
			}
		case models.AreaRoute:
			o.Annotations = append(o.Annotations,
				Annotation{Coordinate: g.Center, Kind: AnnotationWaypoint, ScheduleID: s.ID, RouteID: s.RouteID},
			)
			o.Circles = append(o.Circles, Circle{Center: g.Center, RadiusMeters: g.RadiusMeters, ScheduleID: s.ID})
		default:
			logrus.WithFields(logrus.Fields{
				"schedule_id": s.ID,
				"reason":      s.SkipReason,
			}).Warn("⚠️  Skipping schedule geometry")
			metrics.RecordSkip(s.SkipReason)
			o.Skipped = append(o.Skipped, SkippedSchedule{ScheduleID: s.ID, Reason: s.SkipReason})
		}

		if trail, ok := sessionTrail(s); ok {
			o.Polylines = append(o.Polylines, trail)
		}
	}

	logrus.WithFields(logrus.Fields{
		"schedules":   len(schedules),
		"annotations": len(o.Annotations),
		"polylines":   len(o.Polylines),
		"circles":     len(o.Circles),
		"skipped":     len(o.Skipped),
	}).Debug("🗺️  Projection complete")

	return o
}

// sessionTrail connects the sessions that have a fix, in input order.
// TODO: order by LastUpdate once product confirms trails should be chronological.
func sessionTrail(s models.ActiveSchedule) (Polyline, bool) {
	points := make([]models.Coordinate, 0, len(s.Sessions))
	for _, session := range s.Sessions {
		if pos, ok := session.Position(); ok {
			points = append(points, pos)
		}
	}
	if len(points) < 2 {
		return Polyline{}, false
	}
	return Polyline{Points: points, Kind: PolylineSession, ScheduleID: s.ID}, true
}
