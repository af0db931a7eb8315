package service

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/spatial"
)

// AggregateService derives the cross-session heat and zone views.
// Every call recomputes from the stored samples.
type AggregateService struct {
	samples  *repository.SampleRepository
	reducer  *fusion.Reducer
	cellSize float64
}

// NewAggregateService creates a new aggregate service
func NewAggregateService(samples *repository.SampleRepository, tolerance float64, workers int, cellSize float64) *AggregateService {
	reducer := fusion.NewReducer(workers)
	if tolerance > 0 {
		reducer.Tolerance = tolerance
	}
	cellSize = spatial.NormalizeCellSize(cellSize)
	return &AggregateService{
		samples:  samples,
		reducer:  reducer,
		cellSize: cellSize,
	}
}

func (s *AggregateService) reduce(ctx context.Context, filter models.AggregateFilter) ([]models.WeightedPoint, fusion.ReduceStats, error) {
	sessions, err := s.samples.LoadAll(ctx, filter)
	if err != nil {
		return nil, fusion.ReduceStats{}, err
	}

	points, stats, err := s.reducer.Reduce(ctx, sessions)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to reduce sessions: %w", err)
	}
	return points, stats, nil
}

// Heat returns the weighted point cloud of every matching session
func (s *AggregateService) Heat(ctx context.Context, filter models.AggregateFilter) (*models.HeatView, error) {
	points, stats, err := s.reduce(ctx, filter)
	if err != nil {
		return nil, err
	}

	view := &models.HeatView{
		Points:       points,
		Sessions:     stats.Sessions,
		FieldSamples: stats.FieldSamples,
		Paired:       stats.Paired,
	}
	if b, ok := spatial.WeightedBounds(points); ok {
		view.Bounds = &b
	}
	return view, nil
}

// Zones bins the point cloud into the zone grid. A cellSize that is not a
// positive finite number uses the configured one.
func (s *AggregateService) Zones(ctx context.Context, filter models.AggregateFilter, cellSize float64) (*models.ZoneView, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		cellSize = s.cellSize
	}

	points, _, err := s.reduce(ctx, filter)
	if err != nil {
		return nil, err
	}

	view := spatial.AggregateParallel(points, cellSize, s.reducer.Workers).View()
	return &view, nil
}

// ZonesGeoJSON returns the zone grid as a GeoJSON feature collection
func (s *AggregateService) ZonesGeoJSON(ctx context.Context, filter models.AggregateFilter, cellSize float64) (*geojson.FeatureCollection, error) {
	view, err := s.Zones(ctx, filter, cellSize)
	if err != nil {
		return nil, err
	}
	return spatial.ZonesGeoJSON(view.Cells), nil
}
