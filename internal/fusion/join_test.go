package fusion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jengzang/emf-backend-go/internal/models"
)

func locs(seconds ...float64) []models.LocationSample {
	out := make([]models.LocationSample, len(seconds))
	for i, s := range seconds {
		out[i] = models.LocationSample{Seconds: s, Latitude: float64(i), Longitude: s}
	}
	return out
}

func TestNearest(t *testing.T) {
	ix := NewTimeIndex(locs(0, 5, 10, 20), DefaultMatchTolerance)

	tests := []struct {
		name   string
		t      float64
		want   float64
		wantOK bool
	}{
		{"between closer to lower", 7, 5, true},
		{"between closer to upper", 16, 20, true},
		{"past the end", 30, 0, false},
		{"exact", 10, 10, true},
		{"before the start", -3, 0, true},
		{"tie goes earlier", 15, 10, true},
		{"at tolerance", 25, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ix.Nearest(tt.t)
			if ok != tt.wantOK {
				t.Fatalf("Nearest(%v) ok = %v, want %v", tt.t, ok, tt.wantOK)
			}
			if ok && got.Seconds != tt.want {
				t.Errorf("Nearest(%v) = %v, want %v", tt.t, got.Seconds, tt.want)
			}
		})
	}
}

func TestNearestEdgeCases(t *testing.T) {
	if _, ok := NewTimeIndex(nil, 5).Nearest(1); ok {
		t.Error("Nearest() on empty index ok = true, want false")
	}

	single := NewTimeIndex(locs(100), 5)
	if got, ok := single.Nearest(103); !ok || got.Seconds != 100 {
		t.Errorf("Nearest(103) = %v, %v, want 100, true", got.Seconds, ok)
	}
	if _, ok := single.Nearest(106); ok {
		t.Error("Nearest(106) ok = true, want false")
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := make([]models.LocationSample, 300)
	for i := range samples {
		samples[i] = models.LocationSample{Seconds: math.Round(rng.Float64()*2000) / 2}
	}
	ix := NewTimeIndex(samples, DefaultMatchTolerance)
	sorted := ix.Samples()

	for i := 0; i < 2000; i++ {
		q := rng.Float64()*2100 - 50

		bestDelta := math.Inf(1)
		var best float64
		for _, s := range sorted {
			if d := math.Abs(s.Seconds - q); d < bestDelta {
				bestDelta, best = d, s.Seconds
			}
		}

		got, ok := ix.Nearest(q)
		if wantOK := bestDelta <= DefaultMatchTolerance; ok != wantOK {
			t.Fatalf("Nearest(%v) ok = %v, want %v", q, ok, wantOK)
		}
		if ok && got.Seconds != best {
			t.Fatalf("Nearest(%v) = %v, want %v", q, got.Seconds, best)
		}
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	ix := NewTimeIndex(nil, 5)
	for _, s := range []float64{10, 0, 5, 5, 20} {
		ix.Insert(models.LocationSample{Seconds: s})
	}

	want := []float64{0, 5, 5, 10, 20}
	for i, s := range ix.Samples() {
		if s.Seconds != want[i] {
			t.Fatalf("Samples()[%d] = %v, want %v", i, s.Seconds, want[i])
		}
	}
}

func TestPair(t *testing.T) {
	ix := NewTimeIndex(locs(0, 10), 5)

	p, ok := Pair(ix, models.FieldSample{Seconds: 8, X: 3, Y: 4})
	if !ok {
		t.Fatal("Pair() ok = false")
	}
	if p.Magnitude != 5 || p.Longitude != 10 || p.SecondsOffset != 2 {
		t.Errorf("Pair() = %+v", p)
	}

	if _, ok := Pair(ix, models.FieldSample{Seconds: 40}); ok {
		t.Error("Pair() far from any location ok = true")
	}
}
