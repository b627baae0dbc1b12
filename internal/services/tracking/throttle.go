package tracking

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// MinPositionDelta is the minimum distance (meters) for a session update to be broadcast
	MinPositionDelta = 1.0

	// MaxTimeSinceLastBroadcast forces a broadcast after this many seconds even
	// when the screen has not moved MinPositionDelta
	MaxTimeSinceLastBroadcast = 2.0
)

// Throttle decides which screen session updates are worth pushing to map
// viewers. Every update is still stored; only the broadcast is filtered.
type Throttle struct {
	lastPositions map[int64]*lastPosition // Key: schedule id
	mutex         sync.Mutex
	now           func() time.Time

	broadcast int64
	skipped   int64
}

type lastPosition struct {
	lat       float64
	lng       float64
	timestamp int64     // milliseconds, device clock
	seenAt    time.Time // server clock, for idle cleanup
}

// NewThrottle creates an empty throttle
func NewThrottle() *Throttle {
	return &Throttle{
		lastPositions: make(map[int64]*lastPosition),
		now:           time.Now,
	}
}

// ShouldBroadcast reports whether a fix for scheduleID moved far enough, or
// enough time passed, since the last broadcast one. timestamp is in milliseconds.
func (t *Throttle) ShouldBroadcast(scheduleID int64, lat, lng float64, timestamp int64) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	last, exists := t.lastPositions[scheduleID]
	if !exists {
		t.remember(scheduleID, lat, lng, timestamp)
		return true
	}

	distance := HaversineMeters(last.lat, last.lng, lat, lng)
	elapsed := float64(timestamp-last.timestamp) / 1000.0

	if distance >= MinPositionDelta {
		t.remember(scheduleID, lat, lng, timestamp)
		return true
	}

	if elapsed > MaxTimeSinceLastBroadcast {
		logrus.WithFields(logrus.Fields{
			"schedule_id": scheduleID,
			"elapsed_s":   elapsed,
			"distance_m":  distance,
		}).Debug("⏱️  Time-based session broadcast")
		t.remember(scheduleID, lat, lng, timestamp)
		return true
	}

	last.seenAt = t.now()
	t.skipped++
	return false
}

// RemoveIdle drops schedules that have not reported for longer than maxIdle
// and returns how many were removed. A schedule that reports again starts over
// with an immediate broadcast.
func (t *Throttle) RemoveIdle(maxIdle time.Duration) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	removed := 0
	now := t.now()
	for scheduleID, last := range t.lastPositions {
		if now.Sub(last.seenAt) > maxIdle {
			delete(t.lastPositions, scheduleID)
			removed++
		}
	}
	return removed
}

// Tracked is the number of schedules with a remembered position
func (t *Throttle) Tracked() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.lastPositions)
}

// RunCleanup removes idle schedules every interval until ctx is cancelled
func (t *Throttle) RunCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := t.RemoveIdle(maxIdle)
			broadcast, skipped := t.Stats()
			logrus.WithFields(logrus.Fields{
				"removed":   removed,
				"tracked":   t.Tracked(),
				"broadcast": broadcast,
				"skipped":   skipped,
			}).Info("🧹 Session throttle cleanup")
		}
	}
}

// Stats returns how many updates were broadcast and skipped
func (t *Throttle) Stats() (broadcast, skipped int64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.broadcast, t.skipped
}

// remember stores the latest broadcast position; caller holds the lock
func (t *Throttle) remember(scheduleID int64, lat, lng float64, timestamp int64) {
	t.broadcast++
	t.lastPositions[scheduleID] = &lastPosition{lat: lat, lng: lng, timestamp: timestamp, seenAt: t.now()}
}

// HaversineMeters is the great-circle distance between two points in meters
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
