package analysis

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
)

// Analyzer is the interface that all background analysis skills implement
type Analyzer interface {
	// Analyze runs the skill for a task. The task row already exists;
	// the analyzer marks it running and completed, the caller marks failures.
	Analyze(ctx context.Context, taskID int64) error

	// GetName returns the name of the analyzer
	GetName() string
}

// Options carries the process-wide defaults analyzers fall back to when
// a task does not override them
type Options struct {
	Tolerance float64 // Match window in seconds
	Workers   int     // Concurrency for reduction and binning
	CellSize  float64 // Grid step in degrees
	BatchSize int     // Sessions loaded per progress step
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	DB    *sql.DB
	Name  string
	Tasks *repository.AnalysisTaskRepository
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sql.DB, name string) *BaseAnalyzer {
	return &BaseAnalyzer{
		DB:    db,
		Name:  name,
		Tasks: repository.NewAnalysisTaskRepository(db),
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// GetTask loads the task being analyzed
func (a *BaseAnalyzer) GetTask(ctx context.Context, taskID int64) (*models.AnalysisTask, error) {
	return a.Tasks.GetByID(ctx, taskID)
}

// UpdateTaskProgress records progress as processed out of total steps
func (a *BaseAnalyzer) UpdateTaskProgress(ctx context.Context, taskID int64, processed, total int) error {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}
	return a.Tasks.UpdateProgress(ctx, taskID, percent)
}

// MarkTaskAsRunning marks a task as running
func (a *BaseAnalyzer) MarkTaskAsRunning(ctx context.Context, taskID int64) error {
	return a.Tasks.MarkAsRunning(ctx, taskID)
}

// MarkTaskAsCompleted marks a task as completed with its JSON summary
func (a *BaseAnalyzer) MarkTaskAsCompleted(ctx context.Context, taskID int64, summary string) error {
	return a.Tasks.MarkAsCompleted(ctx, taskID, summary)
}

// MarkTaskAsFailed marks a task as failed with an error message
func (a *BaseAnalyzer) MarkTaskAsFailed(ctx context.Context, taskID int64, errorMsg string) error {
	return a.Tasks.MarkAsFailed(ctx, taskID, errorMsg)
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(db *sql.DB, opts Options) Analyzer

// AnalyzerRegistry maps skill names to analyzer factories
var AnalyzerRegistry = make(map[string]AnalyzerFactory)

// RegisterAnalyzer registers an analyzer factory for a skill name
func RegisterAnalyzer(skillName string, factory AnalyzerFactory) {
	AnalyzerRegistry[skillName] = factory
}

// GetAnalyzer retrieves an analyzer instance for a skill name
func GetAnalyzer(skillName string, db *sql.DB, opts Options) Analyzer {
	factory, ok := AnalyzerRegistry[skillName]
	if !ok {
		return nil
	}
	return factory(db, opts)
}

// IsRegistered checks whether a skill has an analyzer
func IsRegistered(skillName string) bool {
	_, ok := AnalyzerRegistry[skillName]
	return ok
}

// Skills returns the registered skill names, sorted
func Skills() []string {
	names := make([]string, 0, len(AnalyzerRegistry))
	for name := range AnalyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
