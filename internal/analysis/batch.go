package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// DefaultBatchSize is the number of items processed between progress updates
const DefaultBatchSize = 50

// BatchedAnalyzer provides base functionality for analyzers that walk a list
// of items and report progress as they go
type BatchedAnalyzer struct {
	*BaseAnalyzer
	BatchSize int // Number of items to process in each batch
}

// NewBatchedAnalyzer creates a new batched analyzer
func NewBatchedAnalyzer(db *sql.DB, name string, batchSize int) *BatchedAnalyzer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &BatchedAnalyzer{
		BaseAnalyzer: NewBaseAnalyzer(db, name),
		BatchSize:    batchSize,
	}
}

// ProcessInBatches calls fn for consecutive [start, end) ranges covering
// total items. Cancellation is checked before each batch and progress is
// recorded after it. The first failing batch stops processing.
func (a *BatchedAnalyzer) ProcessInBatches(
	ctx context.Context,
	taskID int64,
	total int,
	fn func(ctx context.Context, start, end int) error,
) error {
	startTime := time.Now()

	for start := 0; start < total; start += a.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+a.BatchSize, total)
		if err := fn(ctx, start, end); err != nil {
			return fmt.Errorf("failed to process batch %d-%d: %w", start, end, err)
		}

		if err := a.UpdateTaskProgress(ctx, taskID, end, total); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
	}

	log.Printf("[%s] Processed %d items in %s", a.Name, total, time.Since(startTime).Round(time.Millisecond))
	return nil
}
