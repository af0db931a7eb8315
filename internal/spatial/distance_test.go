package spatial

import (
	"math"
	"testing"

	"github.com/jengzang/emf-backend-go/internal/models"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{"same point", 53.35, -6.26, 53.35, -6.26, 0, 1e-6},
		{"one degree of longitude at the equator", 0, 0, 0, 1, 111195, 5},
		{"dublin to london", 53.3498, -6.2603, 51.5074, -0.1278, 464000, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineDistance() = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	if got := PathLength([]models.LatLng{{Latitude: 1, Longitude: 1}}); got != 0 {
		t.Errorf("PathLength(single) = %v, want 0", got)
	}

	path := []models.LatLng{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 0.5}, {Latitude: 0, Longitude: 1}}
	if got := PathLength(path); math.Abs(got-111195) > 5 {
		t.Errorf("PathLength() = %v, want about 111195", got)
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Error("BoundsOf(nil) ok = true")
	}

	b, ok := BoundsOf([]models.LatLng{{Latitude: 53.35, Longitude: -6.26}, {Latitude: 53.30, Longitude: -6.20}, {Latitude: 53.40, Longitude: -6.30}})
	if !ok {
		t.Fatal("BoundsOf() ok = false")
	}
	want := models.Bounds{South: 53.30, West: -6.30, North: 53.40, East: -6.20}
	for name, pair := range map[string][2]float64{
		"south": {b.South, want.South},
		"west":  {b.West, want.West},
		"north": {b.North, want.North},
		"east":  {b.East, want.East},
	} {
		if math.Abs(pair[0]-pair[1]) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, pair[0], pair[1])
		}
	}
}

func TestBoundsPlainMinMax(t *testing.T) {
	tests := []struct {
		name   string
		points []models.WeightedPoint
		want   models.Bounds
	}{
		{
			name:   "across the antimeridian",
			points: []models.WeightedPoint{{Latitude: 10, Longitude: -100}, {Latitude: 20, Longitude: 100}},
			want:   models.Bounds{South: 10, West: -100, North: 20, East: 100},
		},
		{
			name:   "latitude out of range",
			points: []models.WeightedPoint{{Latitude: 53.351, Longitude: -6.269}, {Latitude: 95, Longitude: 0}},
			want:   models.Bounds{South: 53.351, West: -6.269, North: 95, East: 0},
		},
		{
			name:   "non finite skipped",
			points: []models.WeightedPoint{{Latitude: math.NaN(), Longitude: 3}, {Latitude: 1, Longitude: 2}},
			want:   models.Bounds{South: 1, West: 2, North: 1, East: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WeightedBounds(tt.points)
			if !ok {
				t.Fatal("WeightedBounds() ok = false")
			}
			if got != tt.want {
				t.Errorf("WeightedBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, ok := WeightedBounds([]models.WeightedPoint{{Latitude: math.Inf(1), Longitude: 0}}); ok {
		t.Error("WeightedBounds(all non finite) ok = true")
	}
}
