package zones

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jengzang/emf-backend-go/internal/analysis"
	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/spatial"
)

// SkillName identifies the zone snapshot analyzer
const SkillName = "zone_snapshot"

// Params are the optional task parameters
type Params struct {
	UserID   string  `json:"user_id,omitempty"`
	Status   string  `json:"status,omitempty"`
	CellSize float64 `json:"cell_size,omitempty"`
}

// Summary is stored as the task's result summary
type Summary struct {
	Sessions     int     `json:"sessions"`
	FieldSamples int     `json:"field_samples"`
	Points       int     `json:"points"`
	Cells        int     `json:"cells"`
	CellSize     float64 `json:"cell_size"`
}

// ZoneSnapshotAnalyzer reduces every matching session into the zone grid
// and persists the non-empty cells
type ZoneSnapshotAnalyzer struct {
	*analysis.BatchedAnalyzer
	samples *repository.SampleRepository
	zones   *repository.ZoneRepository
	opts    analysis.Options
}

// NewZoneSnapshotAnalyzer creates a new zone snapshot analyzer
func NewZoneSnapshotAnalyzer(db *sql.DB, opts analysis.Options) analysis.Analyzer {
	return &ZoneSnapshotAnalyzer{
		BatchedAnalyzer: analysis.NewBatchedAnalyzer(db, SkillName, opts.BatchSize),
		samples:         repository.NewSampleRepository(db),
		zones:           repository.NewZoneRepository(db),
		opts:            opts,
	}
}

// Analyze performs the zone snapshot
func (a *ZoneSnapshotAnalyzer) Analyze(ctx context.Context, taskID int64) error {
	log.Printf("[ZoneSnapshotAnalyzer] Starting analysis (task_id=%d)", taskID)

	if err := a.MarkTaskAsRunning(ctx, taskID); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	task, err := a.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	var params Params
	if task.ParamsJSON != "" {
		if err := json.Unmarshal([]byte(task.ParamsJSON), &params); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
	}
	cellSize := params.CellSize
	if cellSize <= 0 {
		cellSize = a.opts.CellSize
	}
	cellSize = spatial.NormalizeCellSize(cellSize)

	sessions, err := a.samples.ListSessions(ctx, models.AggregateFilter{UserID: params.UserID, Status: params.Status})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	reducer := fusion.NewReducer(a.opts.Workers)
	if a.opts.Tolerance > 0 {
		reducer.Tolerance = a.opts.Tolerance
	}

	// Sessions are loaded and reduced a batch at a time; concatenating the
	// batches keeps the overall session order.
	points := []models.WeightedPoint{}
	var stats fusion.ReduceStats
	err = a.ProcessInBatches(ctx, taskID, len(sessions), func(ctx context.Context, start, end int) error {
		batch := sessions[start:end]
		for i := range batch {
			if err := a.samples.LoadStreams(ctx, &batch[i]); err != nil {
				return err
			}
		}

		pts, st, err := reducer.Reduce(ctx, batch)
		if err != nil {
			return err
		}
		points = append(points, pts...)
		stats.Sessions += st.Sessions
		stats.FieldSamples += st.FieldSamples
		stats.Paired += st.Paired

		for i := range batch {
			batch[i].Locations, batch[i].Fields = nil, nil
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reduce sessions: %w", err)
	}

	grid := spatial.AggregateParallel(points, cellSize, a.opts.Workers)
	cells := grid.Zones()
	if err := a.zones.Save(ctx, taskID, cellSize, cells); err != nil {
		return fmt.Errorf("failed to save zone cells: %w", err)
	}

	summary, err := json.Marshal(Summary{
		Sessions:     stats.Sessions,
		FieldSamples: stats.FieldSamples,
		Points:       len(points),
		Cells:        len(cells),
		CellSize:     cellSize,
	})
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := a.MarkTaskAsCompleted(ctx, taskID, string(summary)); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}

	log.Printf("[ZoneSnapshotAnalyzer] Completed: %d sessions, %d points, %d cells", stats.Sessions, len(points), len(cells))
	return nil
}

func init() {
	analysis.RegisterAnalyzer(SkillName, NewZoneSnapshotAnalyzer)
}
