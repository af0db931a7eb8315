package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jengzang/emf-backend-go/internal/analysis"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
)

// AnalysisTaskService creates analysis tasks and runs them in the background
type AnalysisTaskService struct {
	repo  *repository.AnalysisTaskRepository
	zones *repository.ZoneRepository
	db    *sql.DB
	opts  analysis.Options

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewAnalysisTaskService creates a new analysis task service
func NewAnalysisTaskService(db *sql.DB, opts analysis.Options) *AnalysisTaskService {
	return &AnalysisTaskService{
		repo:    repository.NewAnalysisTaskRepository(db),
		zones:   repository.NewZoneRepository(db),
		db:      db,
		opts:    opts,
		running: make(map[int64]context.CancelFunc),
	}
}

// CreateTask creates a task for a registered analyzer and starts it
func (s *AnalysisTaskService) CreateTask(skillName string, params map[string]interface{}, createdBy string) (*models.AnalysisTask, error) {
	if !analysis.IsRegistered(skillName) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSkill, skillName)
	}

	var paramsJSON string
	if len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("%w: params: %v", ErrInvalidInput, err)
		}
		paramsJSON = string(b)
	}

	task := &models.AnalysisTask{
		SkillName:  skillName,
		Status:     models.TaskStatusPending,
		ParamsJSON: paramsJSON,
		CreatedBy:  createdBy,
	}
	if err := s.repo.Create(context.Background(), task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[task.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runAnalysis(ctx, task.ID, skillName)

	return task, nil
}

func (s *AnalysisTaskService) runAnalysis(ctx context.Context, taskID int64, skillName string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.running[taskID]; ok {
			cancel()
			delete(s.running, taskID)
		}
		s.mu.Unlock()
	}()

	log.Printf("[AnalysisTaskService] Running task %d (skill: %s)", taskID, skillName)

	analyzer := analysis.GetAnalyzer(skillName, s.db, s.opts)
	if analyzer == nil {
		s.repo.MarkAsFailed(context.Background(), taskID, fmt.Sprintf("Unknown skill: %s", skillName))
		return
	}

	if err := analyzer.Analyze(ctx, taskID); err != nil {
		msg := fmt.Sprintf("Analysis failed: %v", err)
		if errors.Is(err, context.Canceled) {
			msg = "Task cancelled by user"
		}
		log.Printf("[AnalysisTaskService] Task %d failed: %v", taskID, err)
		s.repo.MarkAsFailed(context.Background(), taskID, msg)
		return
	}

	log.Printf("[AnalysisTaskService] Task %d completed", taskID)
}

// GetTask retrieves a task by ID
func (s *AnalysisTaskService) GetTask(ctx context.Context, id int64) (*models.AnalysisTask, error) {
	task, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// ListTasks retrieves tasks with optional filters
func (s *AnalysisTaskService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.AnalysisTask, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// CancelTask stops a pending or running task
func (s *AnalysisTaskService) CancelTask(ctx context.Context, id int64) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusRunning {
		return fmt.Errorf("%w: task is not running (status: %s)", ErrInvalidInput, task.Status)
	}

	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		cancel()
		return nil
	}
	return s.repo.MarkAsFailed(ctx, id, "Task cancelled by user")
}

// LatestZones returns the most recent persisted zone snapshot
func (s *AnalysisTaskService) LatestZones(ctx context.Context) (*models.ZoneSnapshot, error) {
	snap, err := s.zones.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSnapshotNotFound
	}
	return snap, err
}

// Skills lists the skills tasks can be created for
func (s *AnalysisTaskService) Skills() []string {
	return analysis.Skills()
}

// Wait blocks until every started task has finished
func (s *AnalysisTaskService) Wait() {
	s.wg.Wait()
}
