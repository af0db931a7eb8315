package fusion

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// SessionSamples holds the location and field streams of one session
type SessionSamples struct {
	UserID    string
	SessionID string
	Status    string
	Locations []models.LocationSample
	Fields    []models.FieldSample
}

// ReduceStats counts what a reduction pass consumed and produced
type ReduceStats struct {
	Sessions     int `json:"sessions"`
	FieldSamples int `json:"field_samples"`
	Paired       int `json:"paired"`
}

// Reducer turns many sessions into one weighted point cloud
type Reducer struct {
	Tolerance float64 // Match window in seconds
	Workers   int     // Sessions reduced concurrently, <= 1 means sequential
}

// NewReducer creates a reducer with the default match tolerance
func NewReducer(workers int) *Reducer {
	return &Reducer{
		Tolerance: DefaultMatchTolerance,
		Workers:   workers,
	}
}

// Reduce pairs every session's field samples to its locations and returns the
// weighted points of all sessions, in session order. Unpaired samples are dropped.
func (r *Reducer) Reduce(ctx context.Context, sessions []SessionSamples) ([]models.WeightedPoint, ReduceStats, error) {
	stats := ReduceStats{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return []models.WeightedPoint{}, stats, nil
	}

	results := make([][]models.WeightedPoint, len(sessions))

	g, ctx := errgroup.WithContext(ctx)
	if r.Workers > 1 {
		g.SetLimit(r.Workers)
	} else {
		g.SetLimit(1)
	}

	for i := range sessions {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = ReduceSession(sessions[i], r.Tolerance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	total := 0
	for i, pts := range results {
		total += len(pts)
		stats.FieldSamples += len(sessions[i].Fields)
	}
	stats.Paired = total

	points := make([]models.WeightedPoint, 0, total)
	for _, pts := range results {
		points = append(points, pts...)
	}
	return points, stats, nil
}

// ReduceSession pairs one session's field samples, taken in seconds order,
// and returns a weighted point for each successful pair.
func ReduceSession(s SessionSamples, tolerance float64) []models.WeightedPoint {
	if len(s.Locations) == 0 || len(s.Fields) == 0 {
		return nil
	}

	index := NewTimeIndex(s.Locations, tolerance)

	fields := make([]models.FieldSample, len(s.Fields))
	copy(fields, s.Fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Seconds < fields[j].Seconds
	})

	var points []models.WeightedPoint
	for _, f := range fields {
		p, ok := Pair(index, f)
		if !ok {
			continue
		}
		points = append(points, models.WeightedPoint{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Weight:    Weight(p.Magnitude),
		})
	}
	return points
}
