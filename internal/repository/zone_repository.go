package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/emf-backend-go/internal/database"
	"github.com/jengzang/emf-backend-go/internal/models"
)

// ZoneRepository persists zone grids computed by analysis tasks
type ZoneRepository struct {
	db *sql.DB
}

// NewZoneRepository creates a new zone repository
func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Save replaces the cells stored for a task
func (r *ZoneRepository) Save(ctx context.Context, taskID int64, cellSize float64, cells []models.ZoneCell) error {
	now := time.Now().UTC()

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM zone_cells WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("failed to clear zone cells: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO zone_cells (
				task_id, cell_size, row_index, col_index, min_lat, min_lon, max_lat, max_lon,
				average_weight, sample_count, band, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare zone insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range cells {
			_, err := stmt.ExecContext(ctx, taskID, cellSize, c.RowIndex, c.ColIndex,
				c.MinLat, c.MinLon, c.MaxLat, c.MaxLon, c.AverageWeight, c.SampleCount, c.Band, now)
			if err != nil {
				return fmt.Errorf("failed to insert zone cell: %w", err)
			}
		}
		return nil
	})
}

// GetByTask returns the snapshot stored for a task
func (r *ZoneRepository) GetByTask(ctx context.Context, taskID int64) (*models.ZoneSnapshot, error) {
	query := `
		SELECT cell_size, row_index, col_index, min_lat, min_lon, max_lat, max_lon,
			average_weight, sample_count, band, created_at
		FROM zone_cells
		WHERE task_id = ?
		ORDER BY row_index, col_index
	`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load zone cells: %w", err)
	}
	defer rows.Close()

	snap := &models.ZoneSnapshot{TaskID: taskID, Cells: []models.ZoneCell{}}
	for rows.Next() {
		var c models.ZoneCell
		err := rows.Scan(&snap.CellSize, &c.RowIndex, &c.ColIndex, &c.MinLat, &c.MinLon, &c.MaxLat, &c.MaxLon,
			&c.AverageWeight, &c.SampleCount, &c.Band, &snap.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone cell: %w", err)
		}
		snap.Cells = append(snap.Cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone cells: %w", err)
	}

	if len(snap.Cells) == 0 {
		return nil, fmt.Errorf("zone snapshot for task %d: %w", taskID, ErrNotFound)
	}
	return snap, nil
}

// Latest returns the snapshot of the most recent task that stored cells
func (r *ZoneRepository) Latest(ctx context.Context) (*models.ZoneSnapshot, error) {
	var taskID int64
	err := r.db.QueryRowContext(ctx, `SELECT task_id FROM zone_cells ORDER BY task_id DESC LIMIT 1`).Scan(&taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("zone snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest zone snapshot: %w", err)
	}
	return r.GetByTask(ctx, taskID)
}
