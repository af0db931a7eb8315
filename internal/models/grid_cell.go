package models

import "time"

// GridCell accumulates weighted points falling in one fixed-size lat/lng cell
type GridCell struct {
	RowIndex     int64   `json:"row_index" db:"row_index"` // floor(lat / cellSize)
	ColIndex     int64   `json:"col_index" db:"col_index"` // floor(lon / cellSize)
	SumOfWeights float64 `json:"sum_of_weights" db:"sum_of_weights"`
	SampleCount  int     `json:"sample_count" db:"sample_count"`

	// Minimum corner, used to rebuild the rectangle
	MinLat float64 `json:"min_lat" db:"min_lat"`
	MinLon float64 `json:"min_lon" db:"min_lon"`
}

// ZoneCell is the display form of a non-empty grid cell
type ZoneCell struct {
	RowIndex      int64   `json:"row_index" db:"row_index"`
	ColIndex      int64   `json:"col_index" db:"col_index"`
	MinLat        float64 `json:"min_lat" db:"min_lat"`
	MinLon        float64 `json:"min_lon" db:"min_lon"`
	MaxLat        float64 `json:"max_lat" db:"max_lat"`
	MaxLon        float64 `json:"max_lon" db:"max_lon"`
	AverageWeight float64 `json:"average_weight" db:"average_weight"`
	SampleCount   int     `json:"sample_count" db:"sample_count"`
	Band          string  `json:"band" db:"band"` // low, medium, elevated, high
}

// ZoneSnapshot is a persisted zone grid produced by an analysis task
type ZoneSnapshot struct {
	TaskID    int64      `json:"task_id"`
	CellSize  float64    `json:"cell_size"`
	Cells     []ZoneCell `json:"cells"`
	CreatedAt time.Time  `json:"created_at"`
}
