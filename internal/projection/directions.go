package projection

import (
	"context"
	"sync"

	"adroute-backend/internal/metrics"
	"adroute-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// DirectionsLookup fetches a walking path between two points
type DirectionsLookup interface {
	WalkingRoute(ctx context.Context, from, to models.Coordinate) ([]models.Coordinate, error)
}

// Pending tracks direction lookups that are still in flight
type Pending struct {
	wg    sync.WaitGroup
	count int
	done  chan struct{}
}

// Count is the number of lookups that were started
func (p *Pending) Count() int { return p.count }

// Done is closed once every lookup has finished, successfully or not
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until every lookup has finished
func (p *Pending) Wait() { <-p.done }

// ProjectAsync builds the overlay without straight direction lines and starts
// one walking-directions lookup per fixed route. Each successful lookup is
// appended to the overlay; those that land after overlay.Publish are also
// handed to onArrive. Failures leave the overlay as it was. Nothing here
// blocks on the lookups.
func ProjectAsync(
	ctx context.Context,
	schedules []models.ActiveSchedule,
	sel Selection,
	lookup DirectionsLookup,
	onArrive func(Polyline),
) (*Overlay, *Pending) {
	retained := Filter(schedules, sel)
	overlay := project(retained, false)
	return overlay, AttachDirections(ctx, overlay, lookup, retained, onArrive)
}

// AttachDirections starts the lookups for the fixed routes among schedules
func AttachDirections(
	ctx context.Context,
	overlay *Overlay,
	lookup DirectionsLookup,
	schedules []models.ActiveSchedule,
	onArrive func(Polyline),
) *Pending {
	p := &Pending{done: make(chan struct{})}

	for _, s := range schedules {
		fixed, ok := s.Geometry.(models.FixedRoute)
		if !ok {
			continue
		}
		p.count++
		p.wg.Add(1)
		overlay.beginLookup()
		go func(scheduleID int64, fixed models.FixedRoute) {
			defer p.wg.Done()

			points, err := lookup.WalkingRoute(ctx, fixed.Start, fixed.End)
			if err != nil || len(points) < 2 {
				overlay.settleLookup(nil)
				metrics.RecordDirectionsLookup(false)
				logrus.WithFields(logrus.Fields{
					"schedule_id": scheduleID,
					"points":      len(points),
				}).WithError(err).Warn("⚠️  Walking directions unavailable, omitting direction polyline")
				return
			}
			metrics.RecordDirectionsLookup(true)

			line := Polyline{Points: points, Kind: PolylineDirection, ScheduleID: scheduleID}
			if overlay.settleLookup(&line) && onArrive != nil {
				onArrive(line)
			}
		}(s.ID, fixed)
	}

	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	return p
}
