package spatial

import (
	"math"
	"sort"
	"sync"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// DefaultCellSize is the grid step in degrees on both axes (~1 km, not latitude corrected)
const DefaultCellSize = 0.01

// MaxCellSize is the coarsest grid step accepted from callers
const MaxCellSize = 1.0

// NormalizeCellSize returns size, or DefaultCellSize when size is not a
// positive finite number
func NormalizeCellSize(size float64) float64 {
	if !(size > 0) || math.IsInf(size, 1) {
		return DefaultCellSize
	}
	return size
}

// Zone bands on a cell's average weight
const (
	ZoneLow      = "low"
	ZoneMedium   = "medium"
	ZoneElevated = "elevated"
	ZoneHigh     = "high"
)

// Upper bounds (inclusive) of the lower zone bands
const (
	ZoneLowMax      = 0.35
	ZoneMediumMax   = 0.5
	ZoneElevatedMax = 0.7
)

// CellKey identifies a grid cell by its row and column index
type CellKey struct {
	Row int64
	Col int64
}

// KeyFor returns the cell holding a coordinate
func KeyFor(lat, lon, cellSize float64) CellKey {
	return CellKey{
		Row: int64(math.Floor(lat / cellSize)),
		Col: int64(math.Floor(lon / cellSize)),
	}
}

// Grid is the result of binning a weighted point cloud
type Grid struct {
	CellSize float64
	Cells    map[CellKey]*models.GridCell
	Points   int
	Bounds   models.Bounds
	HasBound bool
}

// Aggregate bins points into cells of cellSize degrees and accumulates weights
func Aggregate(points []models.WeightedPoint, cellSize float64) *Grid {
	cellSize = NormalizeCellSize(cellSize)

	g := newGrid(points, cellSize)
	for _, p := range points {
		g.add(KeyFor(p.Latitude, p.Longitude, cellSize), p.Weight)
	}
	return g
}

// AggregateParallel bins points with several workers. Each worker owns the
// keys that hash to it and scans the points in input order, so every cell
// sums its weights in the same order as Aggregate does.
func AggregateParallel(points []models.WeightedPoint, cellSize float64, workers int) *Grid {
	if workers <= 1 || len(points) == 0 {
		return Aggregate(points, cellSize)
	}
	cellSize = NormalizeCellSize(cellSize)

	keys := make([]CellKey, len(points))
	for i, p := range points {
		keys[i] = KeyFor(p.Latitude, p.Longitude, cellSize)
	}

	partials := make([]*Grid, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			part := &Grid{CellSize: cellSize, Cells: make(map[CellKey]*models.GridCell)}
			for i, key := range keys {
				if partitionOf(key, workers) != w {
					continue
				}
				part.add(key, points[i].Weight)
			}
			partials[w] = part
		}(w)
	}
	wg.Wait()

	g := newGrid(points, cellSize)
	for _, part := range partials {
		for key, cell := range part.Cells {
			g.Cells[key] = cell
		}
	}
	return g
}

func partitionOf(key CellKey, workers int) int {
	h := uint64(key.Row)*0x9E3779B97F4A7C15 ^ uint64(key.Col)
	return int(h % uint64(workers))
}

func newGrid(points []models.WeightedPoint, cellSize float64) *Grid {
	g := &Grid{
		CellSize: cellSize,
		Cells:    make(map[CellKey]*models.GridCell),
		Points:   len(points),
	}
	g.Bounds, g.HasBound = WeightedBounds(points)
	return g
}

func (g *Grid) add(key CellKey, weight float64) {
	cell, exists := g.Cells[key]
	if !exists {
		cell = &models.GridCell{
			RowIndex: key.Row,
			ColIndex: key.Col,
			MinLat:   float64(key.Row) * g.CellSize,
			MinLon:   float64(key.Col) * g.CellSize,
		}
		g.Cells[key] = cell
	}
	cell.SumOfWeights += weight
	cell.SampleCount++
}

// Zones returns the non-empty cells sorted by row then column
func (g *Grid) Zones() []models.ZoneCell {
	zones := make([]models.ZoneCell, 0, len(g.Cells))
	for _, cell := range g.Cells {
		zones = append(zones, ToZone(*cell, g.CellSize))
	}

	sort.Slice(zones, func(i, j int) bool {
		if zones[i].RowIndex != zones[j].RowIndex {
			return zones[i].RowIndex < zones[j].RowIndex
		}
		return zones[i].ColIndex < zones[j].ColIndex
	})
	return zones
}

// View converts the grid into the zone view payload
func (g *Grid) View() models.ZoneView {
	view := models.ZoneView{
		CellSize: g.CellSize,
		Cells:    g.Zones(),
		Points:   g.Points,
	}
	if g.HasBound {
		b := g.Bounds
		view.Bounds = &b
	}
	return view
}

// ToZone derives the rectangle, average and band of a cell
func ToZone(cell models.GridCell, cellSize float64) models.ZoneCell {
	avg := AverageWeight(cell)
	return models.ZoneCell{
		RowIndex:      cell.RowIndex,
		ColIndex:      cell.ColIndex,
		MinLat:        cell.MinLat,
		MinLon:        cell.MinLon,
		MaxLat:        cell.MinLat + cellSize,
		MaxLon:        cell.MinLon + cellSize,
		AverageWeight: avg,
		SampleCount:   cell.SampleCount,
		Band:          ZoneBand(avg),
	}
}

// AverageWeight returns the mean weight of a cell
func AverageWeight(cell models.GridCell) float64 {
	if cell.SampleCount == 0 {
		return 0
	}
	return cell.SumOfWeights / float64(cell.SampleCount)
}

// ZoneBand classifies an average weight
func ZoneBand(avg float64) string {
	switch {
	case avg > ZoneElevatedMax:
		return ZoneHigh
	case avg > ZoneMediumMax:
		return ZoneElevated
	case avg > ZoneLowMax:
		return ZoneMedium
	default:
		return ZoneLow
	}
}
