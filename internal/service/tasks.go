package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/repository"
)

// Points awarded on task completion; doubled for high-impact tasks.
const (
	basePoints     int64 = 10
	baseExperience int64 = 25
)

// UpsertTask carries the editable task fields.
type UpsertTask struct {
	ClientID       uuid.NullUUID
	Title          string
	Description    string
	Priority       int
	Status         model.TaskStatus
	EstimatedHours float64
	ActualHours    float64
	HighImpact     bool
}

// TaskService defines task CRUD plus the completion operation that feeds
// gamification.
type TaskService interface {
	// Create inserts a task; the owning client's task counter moves in the
	// same transaction.
	Create(ctx context.Context, userID uuid.UUID, in UpsertTask) (*model.Task, error)
	// Update rewrites the task's editable fields.
	Update(ctx context.Context, userID, id uuid.UUID, in UpsertTask) (*model.Task, error)
	// Get returns a single task.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Task, error)
	// List returns the user's tasks.
	List(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	// Delete removes a task.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// Complete sets or clears done status. Completing awards points and
	// experience exactly once; the award rides the same transaction as the
	// status change. Returns the points awarded (0 on reopen or re-complete).
	Complete(ctx context.Context, userID, id uuid.UUID, completed bool) (*model.Task, int64, error)
}

type TaskServiceImpl struct {
	repo repository.TaskRepository
}

// NewTaskService constructs TaskService.
func NewTaskService(repo repository.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

func validateTask(in *UpsertTask) error {
	if in.Title == "" {
		return fmt.Errorf("%w: empty title", errs.ErrValidation)
	}
	if in.Status == "" {
		in.Status = model.TaskPending
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errs.ErrValidation, in.Status)
	}
	if in.EstimatedHours < 0 || in.ActualHours < 0 {
		return fmt.Errorf("%w: negative hours", errs.ErrValidation)
	}
	return nil
}

// Create validates and inserts the task.
func (s *TaskServiceImpl) Create(ctx context.Context, userID uuid.UUID, in UpsertTask) (*model.Task, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if err := validateTask(&in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t := &model.Task{
		ID:             id,
		UserID:         userID,
		ClientID:       in.ClientID,
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		Status:         in.Status,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		HighImpact:     in.HighImpact,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update rewrites editable fields; completion goes through Complete.
func (s *TaskServiceImpl) Update(ctx context.Context, userID, id uuid.UUID, in UpsertTask) (*model.Task, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	if err := validateTask(&in); err != nil {
		return nil, err
	}
	t := &model.Task{
		ID:             id,
		UserID:         userID,
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		Status:         in.Status,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		HighImpact:     in.HighImpact,
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, id)
}

// Get fetches a single task.
func (s *TaskServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*model.Task, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	return s.repo.Get(ctx, userID, id)
}

// List returns the user's tasks.
func (s *TaskServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.repo.List(ctx, userID)
}

// Delete removes a task.
func (s *TaskServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	return s.repo.Delete(ctx, userID, id)
}

// Complete marks the task done (awarding points, doubled for high impact)
// or reopens it. The repository guards against double awards.
func (s *TaskServiceImpl) Complete(ctx context.Context, userID, id uuid.UUID, completed bool) (*model.Task, int64, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, 0, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	if !completed {
		t, err := s.repo.Reopen(ctx, userID, id)
		return t, 0, err
	}

	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, 0, err
	}
	points, experience := basePoints, baseExperience
	if t.HighImpact {
		points *= 2
		experience *= 2
	}
	return s.repo.Complete(ctx, userID, id, points, experience)
}
