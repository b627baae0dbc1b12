package projection

import (
	"fmt"

	"adroute-backend/internal/models"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection exports an overlay snapshot as GeoJSON. Circles become
// points carrying a radius_meters property since GeoJSON has no circle type.
func FeatureCollection(s Snapshot) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}

	for i, a := range s.Annotations {
		props := map[string]interface{}{
			"type":        "annotation",
			"kind":        string(a.Kind),
			"schedule_id": a.ScheduleID,
		}
		if a.RouteID != nil {
			props["route_id"] = *a.RouteID
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         fmt.Sprintf("annotation-%d", i),
			Geometry:   point(a.Coordinate),
			Properties: props,
		})
	}

	for i, p := range s.Polylines {
		coords := make([]geom.Coord, len(p.Points))
		for j, c := range p.Points {
			coords[j] = geom.Coord{c.Lng, c.Lat}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("polyline-%d", i),
			Geometry: geom.NewLineString(geom.XY).MustSetCoords(coords),
			Properties: map[string]interface{}{
				"type":        "polyline",
				"kind":        string(p.Kind),
				"schedule_id": p.ScheduleID,
			},
		})
	}

	for i, c := range s.Circles {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("circle-%d", i),
			Geometry: point(c.Center),
			Properties: map[string]interface{}{
				"type":          "circle",
				"radius_meters": c.RadiusMeters,
				"schedule_id":   c.ScheduleID,
			},
		})
	}

	return fc
}

func point(c models.Coordinate) *geom.Point {
	return geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{c.Lng, c.Lat})
}
