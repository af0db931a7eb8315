package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// AnalysisTaskRepository handles database operations for analysis tasks
type AnalysisTaskRepository struct {
	db *sql.DB
}

// NewAnalysisTaskRepository creates a new analysis task repository
func NewAnalysisTaskRepository(db *sql.DB) *AnalysisTaskRepository {
	return &AnalysisTaskRepository{db: db}
}

const taskColumns = `id, skill_name, status, progress_percent, params_json, result_summary,
	error_message, created_by, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.AnalysisTask, error) {
	task := &models.AnalysisTask{}
	var completed sql.NullTime
	err := row.Scan(
		&task.ID,
		&task.SkillName,
		&task.Status,
		&task.ProgressPercent,
		&task.ParamsJSON,
		&task.ResultSummary,
		&task.ErrorMessage,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completed,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		task.CompletedAt = &t
	}
	return task, nil
}

// Create creates a new analysis task
func (r *AnalysisTaskRepository) Create(ctx context.Context, task *models.AnalysisTask) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO analysis_tasks (
			skill_name, status, progress_percent, params_json, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		task.SkillName,
		task.Status,
		task.ProgressPercent,
		task.ParamsJSON,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves an analysis task by ID
func (r *AnalysisTaskRepository) GetByID(ctx context.Context, id int64) (*models.AnalysisTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM analysis_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis task: %w", err)
	}
	return task, nil
}

// List retrieves analysis tasks newest first
func (r *AnalysisTaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.AnalysisTask, error) {
	query := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE 1=1`

	args := []interface{}{}
	if filter.SkillName != "" {
		query += " AND skill_name = ?"
		args = append(args, filter.SkillName)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.AnalysisTask{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis tasks: %w", err)
	}

	return tasks, nil
}

// UpdateProgress updates the progress of an analysis task
func (r *AnalysisTaskRepository) UpdateProgress(ctx context.Context, id int64, progressPercent int) error {
	query := `UPDATE analysis_tasks SET progress_percent = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, progressPercent, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	return nil
}

// MarkAsRunning marks a task as running
func (r *AnalysisTaskRepository) MarkAsRunning(ctx context.Context, id int64) error {
	query := `UPDATE analysis_tasks SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, models.TaskStatusRunning, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}
	return nil
}

// MarkAsCompleted marks a task as completed with result summary
func (r *AnalysisTaskRepository) MarkAsCompleted(ctx context.Context, id int64, resultSummary string) error {
	now := time.Now().UTC()
	query := `
		UPDATE analysis_tasks
		SET status = ?, result_summary = ?, progress_percent = 100, updated_at = ?, completed_at = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, models.TaskStatusCompleted, resultSummary, now, now, id); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *AnalysisTaskRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	now := time.Now().UTC()
	query := `
		UPDATE analysis_tasks
		SET status = ?, error_message = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, models.TaskStatusFailed, errorMessage, now, now, id); err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}
	return nil
}
