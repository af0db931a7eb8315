package spatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// ZonesGeoJSON renders zone cells as rectangle polygons
func ZonesGeoJSON(cells []models.ZoneCell) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		bound := orb.Bound{
			Min: orb.Point{c.MinLon, c.MinLat},
			Max: orb.Point{c.MaxLon, c.MaxLat},
		}

		f := geojson.NewFeature(bound.ToPolygon())
		f.Properties["row_index"] = c.RowIndex
		f.Properties["col_index"] = c.ColIndex
		f.Properties["average_weight"] = c.AverageWeight
		f.Properties["sample_count"] = c.SampleCount
		f.Properties["band"] = c.Band
		fc.Append(f)
	}
	return fc
}

// LiveGeoJSON renders a live view: the route as a line string, zones and
// weather observations as points
func LiveGeoJSON(view models.LiveView) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if len(view.Path) > 0 {
		line := make(orb.LineString, 0, len(view.Path))
		for _, p := range view.Path {
			line = append(line, orb.Point{p.Longitude, p.Latitude})
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "path"
		f.Properties["length_meters"] = view.Stats.PathLengthMeters
		fc.Append(f)
	}

	for _, z := range view.Zones {
		f := geojson.NewFeature(orb.Point{z.Longitude, z.Latitude})
		f.Properties["kind"] = "zone"
		f.Properties["magnitude"] = z.Magnitude
		f.Properties["radius_meters"] = z.RadiusMeters
		f.Properties["band"] = z.Band
		f.Properties["seconds"] = z.Seconds
		fc.Append(f)
	}

	for _, w := range view.Weather {
		f := geojson.NewFeature(orb.Point{w.Longitude, w.Latitude})
		f.Properties["kind"] = "weather"
		f.Properties["timestamp"] = w.Timestamp
		f.Properties["temperature"] = w.Temperature
		f.Properties["pressure"] = w.Pressure
		f.Properties["humidity"] = w.Humidity
		f.Properties["wind"] = w.Wind
		f.Properties["clouds"] = w.Clouds
		fc.Append(f)
	}

	return fc
}
