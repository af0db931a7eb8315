package spatial

import (
	"math"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// BoundsOf returns the lat/lng bounding box of a set of coordinates.
// The box is the plain min/max of the inputs, so a route crossing the
// antimeridian spans the long way round. Non-finite coordinates are ignored.
func BoundsOf(points []models.LatLng) (models.Bounds, bool) {
	var acc boundsAcc
	for _, p := range points {
		acc.add(p.Latitude, p.Longitude)
	}
	return acc.bounds()
}

// WeightedBounds returns the bounding box of a weighted point cloud
func WeightedBounds(points []models.WeightedPoint) (models.Bounds, bool) {
	var acc boundsAcc
	for _, p := range points {
		acc.add(p.Latitude, p.Longitude)
	}
	return acc.bounds()
}

type boundsAcc struct {
	b  models.Bounds
	ok bool
}

func (a *boundsAcc) add(lat, lon float64) {
	if !finite(lat) || !finite(lon) {
		return
	}
	if !a.ok {
		a.b = models.Bounds{South: lat, West: lon, North: lat, East: lon}
		a.ok = true
		return
	}
	a.b.South = math.Min(a.b.South, lat)
	a.b.North = math.Max(a.b.North, lat)
	a.b.West = math.Min(a.b.West, lon)
	a.b.East = math.Max(a.b.East, lon)
}

func (a *boundsAcc) bounds() (models.Bounds, bool) {
	return a.b, a.ok
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
