package fusion

import (
	"math"
	"sort"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// DefaultMatchTolerance is the widest time gap (seconds) accepted when pairing
// a field sample with a location sample.
const DefaultMatchTolerance = 5.0

// Matcher finds the location sample nearest in time to t.
// Both the live view and the cross-session reducer pair through this interface.
type Matcher interface {
	Nearest(t float64) (models.LocationSample, bool)
}

// TimeIndex is a Matcher over location samples kept sorted by seconds
type TimeIndex struct {
	samples   []models.LocationSample
	tolerance float64
}

// NewTimeIndex copies samples, sorts them by seconds and returns an index
// accepting matches up to tolerance seconds away.
func NewTimeIndex(samples []models.LocationSample, tolerance float64) *TimeIndex {
	sorted := make([]models.LocationSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seconds < sorted[j].Seconds
	})

	return &TimeIndex{
		samples:   sorted,
		tolerance: tolerance,
	}
}

// Len returns the number of indexed location samples
func (ix *TimeIndex) Len() int {
	return len(ix.samples)
}

// Samples returns the indexed samples in seconds order. Callers must not modify it.
func (ix *TimeIndex) Samples() []models.LocationSample {
	return ix.samples
}

// Tolerance returns the match window in seconds
func (ix *TimeIndex) Tolerance() float64 {
	return ix.tolerance
}

// Insert adds a sample after every sample with the same or lower seconds,
// which is where a stable sort of the arrival sequence would put it.
func (ix *TimeIndex) Insert(s models.LocationSample) {
	pos := sort.Search(len(ix.samples), func(i int) bool {
		return ix.samples[i].Seconds > s.Seconds
	})

	ix.samples = append(ix.samples, models.LocationSample{})
	copy(ix.samples[pos+1:], ix.samples[pos:])
	ix.samples[pos] = s
}

// Nearest returns the sample closest in time to t, or false when the closest
// one is more than the tolerance away. Ties go to the earlier sample.
func (ix *TimeIndex) Nearest(t float64) (models.LocationSample, bool) {
	n := len(ix.samples)
	if n == 0 {
		return models.LocationSample{}, false
	}

	// Insertion point: first sample with seconds >= t
	lo := sort.Search(n, func(i int) bool {
		return ix.samples[i].Seconds >= t
	})

	next := lo
	if next > n-1 {
		next = n - 1
	}
	prev := lo - 1
	if prev < 0 {
		prev = 0
	}

	nextDelta := math.Abs(ix.samples[next].Seconds - t)
	prevDelta := math.Abs(ix.samples[prev].Seconds - t)

	best, delta := next, nextDelta
	if prevDelta <= nextDelta {
		best, delta = prev, prevDelta
	}

	if delta > ix.tolerance {
		return models.LocationSample{}, false
	}
	return ix.samples[best], true
}

// Pair joins a field sample to its nearest location sample
func Pair(m Matcher, f models.FieldSample) (models.PairedPoint, bool) {
	loc, ok := m.Nearest(f.Seconds)
	if !ok {
		return models.PairedPoint{}, false
	}

	return models.PairedPoint{
		Latitude:      loc.Latitude,
		Longitude:     loc.Longitude,
		Magnitude:     Magnitude(f),
		SecondsOffset: loc.Seconds - f.Seconds,
	}, true
}
