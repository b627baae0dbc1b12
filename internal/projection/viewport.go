package projection

import (
	"math"

	"adroute-backend/internal/models"

	"github.com/twpayne/go-geom"
)

const (
	viewportPadding = 1.2  // 20% on each axis
	minSpanDegrees  = 0.01 // Never zoom tighter than this

	metersPerDegreeLat = 111_000.0
	areaPadding        = 2.2
)

// Span is the visible extent of a viewport in degrees
type Span struct {
	LatDelta float64 `json:"lat_delta"`
	LngDelta float64 `json:"lng_delta"`
}

// Viewport is the map region a client should show
type Viewport struct {
	Center models.Coordinate `json:"center"`
	Span   Span              `json:"span"`
}

// DefaultViewport is shown when there is nothing to frame (Istanbul centre)
var DefaultViewport = Viewport{
	Center: models.Coordinate{Lat: 41.0251, Lng: 28.9934},
	Span:   Span{LatDelta: 0.05, LngDelta: 0.05},
}

// ComputeViewport frames the coordinates with 20% padding and a 0.01 degree floor
func ComputeViewport(coords []models.Coordinate) Viewport {
	if len(coords) == 0 {
		return DefaultViewport
	}

	flat := make([]geom.Coord, len(coords))
	for i, c := range coords {
		flat[i] = geom.Coord{c.Lng, c.Lat}
	}
	bounds := geom.NewMultiPoint(geom.XY).MustSetCoords(flat).Bounds()

	minLng, maxLng := bounds.Min(0), bounds.Max(0)
	minLat, maxLat := bounds.Min(1), bounds.Max(1)

	return Viewport{
		Center: models.Coordinate{
			Lat: (minLat + maxLat) / 2,
			Lng: (minLng + maxLng) / 2,
		},
		Span: Span{
			LatDelta: math.Max((maxLat-minLat)*viewportPadding, minSpanDegrees),
			LngDelta: math.Max((maxLng-minLng)*viewportPadding, minSpanDegrees),
		},
	}
}

// AreaViewport frames a single area route so the whole circle is visible
func AreaViewport(center models.Coordinate, radiusMeters int) Viewport {
	latDelta := float64(radiusMeters) / metersPerDegreeLat * areaPadding
	lngDelta := float64(radiusMeters) / (metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180)) * areaPadding
	return Viewport{
		Center: center,
		Span: Span{
			LatDelta: math.Max(latDelta, minSpanDegrees),
			LngDelta: math.Max(lngDelta, minSpanDegrees),
		},
	}
}

// FitSnapshot picks the viewport for a projected overlay. A lone area route
// is framed by its radius, with or without a session trail; everything else
// by the bounding box of its points.
func FitSnapshot(s Snapshot) Viewport {
	if len(s.Circles) == 1 && len(s.Annotations) == 1 && len(s.PolylinesOfKind(PolylineDirection)) == 0 {
		c := s.Circles[0]
		return AreaViewport(c.Center, c.RadiusMeters)
	}
	return ComputeViewport(s.Coordinates())
}
