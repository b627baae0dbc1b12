package projection

import (
	"testing"

	"adroute-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var (
	sultanahmet = models.Coordinate{Lat: 41.0082, Lng: 28.9784}
	taksim      = models.Coordinate{Lat: 41.0369, Lng: 28.9850}
	besiktas    = models.Coordinate{Lat: 41.0422, Lng: 29.0083}
)

func fixedSchedule(id, routeID int64, start, end models.Coordinate, sessions ...models.ScreenSession) models.ActiveSchedule {
	return models.ActiveSchedule{
		ID:       id,
		RouteID:  ptr(routeID),
		Geometry: models.FixedRoute{Start: start, End: end},
		Sessions: sessions,
	}
}

func areaSchedule(id, routeID int64, center models.Coordinate, radius int) models.ActiveSchedule {
	return models.ActiveSchedule{
		ID:       id,
		RouteID:  ptr(routeID),
		Geometry: models.AreaRoute{Center: center, RadiusMeters: radius},
	}
}

func session(lat, lng float64) models.ScreenSession {
	return models.ScreenSession{CurrentLat: ptr(lat), CurrentLng: ptr(lng)}
}

func TestProject_FixedAndArea(t *testing.T) {
	schedules := []models.ActiveSchedule{
		fixedSchedule(1, 10, sultanahmet, taksim),
		areaSchedule(2, 20, besiktas, 1500),
	}

	s := Project(schedules, NewSelection()).Snapshot()

	require.Len(t, s.Annotations, 3)
	assert.Equal(t, Annotation{Coordinate: sultanahmet, Kind: AnnotationStart, ScheduleID: 1, RouteID: ptr(int64(10))}, s.Annotations[0])
	assert.Equal(t, AnnotationEnd, s.Annotations[1].Kind)
	assert.Equal(t, AnnotationWaypoint, s.Annotations[2].Kind)

	directions := s.PolylinesOfKind(PolylineDirection)
	require.Len(t, directions, 1)
	assert.Equal(t, []models.Coordinate{sultanahmet, taksim}, directions[0].Points)

	require.Len(t, s.Circles, 1)
	assert.Equal(t, Circle{Center: besiktas, RadiusMeters: 1500, ScheduleID: 2}, s.Circles[0])
	assert.Empty(t, s.Skipped)
}

func TestProject_CountsMatchGeometry(t *testing.T) {
	schedules := []models.ActiveSchedule{
		fixedSchedule(1, 1, sultanahmet, taksim),
		fixedSchedule(2, 2, taksim, besiktas),
		areaSchedule(3, 3, besiktas, 800),
		{ID: 4, RouteID: ptr(int64(4)), SkipReason: models.SkipUnknownRouteType},
	}

	s := Project(schedules, nil).Snapshot()

	fixed, area, skipped := 2, 1, 1
	assert.Len(t, s.Annotations, 2*fixed+area)
	assert.Len(t, s.PolylinesOfKind(PolylineDirection), fixed)
	assert.Len(t, s.Circles, area)
	assert.Len(t, s.Skipped, skipped)
}

func TestProject_SkipsIncompleteSchedulesAndKeepsTheRest(t *testing.T) {
	schedules := []models.ActiveSchedule{
		{ID: 1, SkipReason: models.SkipMissingFixedCoordinates},
		areaSchedule(2, 2, besiktas, 1000),
		{ID: 3, SkipReason: models.SkipMissingAreaCenter},
	}

	s := Project(schedules, nil).Snapshot()

	assert.Equal(t, []SkippedSchedule{
		{ScheduleID: 1, Reason: models.SkipMissingFixedCoordinates},
		{ScheduleID: 3, Reason: models.SkipMissingAreaCenter},
	}, s.Skipped)
	assert.Len(t, s.Circles, 1)
	assert.Len(t, s.Annotations, 1)
}

func TestProject_EmptyInput(t *testing.T) {
	s := Project(nil, nil).Snapshot()

	assert.NotNil(t, s.Annotations)
	assert.NotNil(t, s.Polylines)
	assert.Empty(t, s.Annotations)
	assert.Empty(t, s.Polylines)
	assert.Empty(t, s.Circles)
	assert.Equal(t, DefaultViewport, FitSnapshot(s))
}

func TestProject_Selection(t *testing.T) {
	schedules := []models.ActiveSchedule{
		fixedSchedule(1, 10, sultanahmet, taksim),
		areaSchedule(2, 20, besiktas, 1000),
		{ID: 3, Geometry: models.AreaRoute{Center: taksim, RadiusMeters: 500}}, // no route id
	}

	t.Run("empty selection shows everything", func(t *testing.T) {
		s := Project(schedules, NewSelection()).Snapshot()
		assert.Len(t, s.Circles, 2)
		assert.Len(t, s.Annotations, 4)
	})

	t.Run("selected routes only", func(t *testing.T) {
		s := Project(schedules, NewSelection(20)).Snapshot()
		assert.Empty(t, s.PolylinesOfKind(PolylineDirection))
		require.Len(t, s.Circles, 1)
		assert.Equal(t, int64(2), s.Circles[0].ScheduleID)
	})

	t.Run("unknown route id selects nothing", func(t *testing.T) {
		s := Project(schedules, NewSelection(999)).Snapshot()
		assert.Empty(t, s.Annotations)
		assert.Empty(t, s.Circles)
	})
}

func TestProject_SessionTrail(t *testing.T) {
	sessions := []models.ScreenSession{
		session(41.0082, 28.9784),
		{}, // no fix yet
		session(41.0150, 28.9800),
		session(41.0250, 28.9820),
	}
	schedules := []models.ActiveSchedule{fixedSchedule(1, 1, sultanahmet, taksim, sessions...)}

	s := Project(schedules, nil).Snapshot()

	trails := s.PolylinesOfKind(PolylineSession)
	require.Len(t, trails, 1)
	assert.Equal(t, []models.Coordinate{
		{Lat: 41.0082, Lng: 28.9784},
		{Lat: 41.0150, Lng: 28.9800},
		{Lat: 41.0250, Lng: 28.9820},
	}, trails[0].Points)
	assert.Equal(t, int64(1), trails[0].ScheduleID)
}

func TestProject_SessionTrailNeedsTwoFixes(t *testing.T) {
	schedules := []models.ActiveSchedule{
		fixedSchedule(1, 1, sultanahmet, taksim, session(41.0, 29.0), models.ScreenSession{}),
	}

	s := Project(schedules, nil).Snapshot()
	assert.Empty(t, s.PolylinesOfKind(PolylineSession))
}

func TestProject_SessionTrailOnSkippedSchedule(t *testing.T) {
	schedules := []models.ActiveSchedule{{
		ID:         1,
		SkipReason: models.SkipUnknownRouteType,
		Sessions:   []models.ScreenSession{session(41.0, 29.0), session(41.01, 29.01)},
	}}

	s := Project(schedules, nil).Snapshot()
	assert.Len(t, s.Skipped, 1)
	assert.Len(t, s.PolylinesOfKind(PolylineSession), 1)
}

func TestSnapshot_IsACopy(t *testing.T) {
	o := Project([]models.ActiveSchedule{fixedSchedule(1, 1, sultanahmet, taksim)}, nil)
	s := o.Snapshot()

	o.beginLookup()
	o.settleLookup(&Polyline{Points: []models.Coordinate{taksim, besiktas}, Kind: PolylineDirection, ScheduleID: 9})

	assert.Len(t, s.Polylines, 1)
	assert.Len(t, o.Snapshot().Polylines, 2)
}

func TestPublish_SplitsSnapshotFromLaterArrivals(t *testing.T) {
	o := Project(nil, nil)
	early := Polyline{Points: []models.Coordinate{sultanahmet, taksim}, Kind: PolylineDirection, ScheduleID: 1}
	late := Polyline{Points: []models.Coordinate{taksim, besiktas}, Kind: PolylineDirection, ScheduleID: 2}

	o.beginLookup()
	o.beginLookup()
	o.beginLookup()
	assert.False(t, o.settleLookup(&early), "lines settled before publishing are only in the snapshot")
	assert.False(t, o.settleLookup(nil))

	s, inFlight := o.Publish()
	assert.Equal(t, []Polyline{early}, s.Polylines)
	assert.Equal(t, 1, inFlight)

	assert.True(t, o.settleLookup(&late), "lines settled after publishing must be delivered")
	_, inFlight = o.Publish()
	assert.Equal(t, 0, inFlight)
}
