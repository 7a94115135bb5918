package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/repository"
)

// StartTimer is the input for starting a timer. At least one of ClientID and
// TaskID must be set.
type StartTimer struct {
	ClientID    uuid.NullUUID
	TaskID      uuid.NullUUID
	Description string
	Billable    bool
}

// TimerService defines operations over backend timer records.
type TimerService interface {
	// Start creates a new open timer. Fails with ErrTimerOpen when one
	// already exists for the user.
	Start(ctx context.Context, userID uuid.UUID, in StartTimer) (*model.Timer, error)
	// Stop finalizes an open timer. A nil duration falls back to the
	// wall-clock elapsed time.
	Stop(ctx context.Context, userID, id uuid.UUID, durationSeconds *int64) (*model.Timer, error)
	// Get returns a single timer.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Timer, error)
	// List returns the user's timers, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Timer, error)
	// Delete removes a timer record.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type TimerServiceImpl struct {
	repo repository.TimerRepository
}

// NewTimerService constructs TimerService.
func NewTimerService(repo repository.TimerRepository) *TimerServiceImpl {
	return &TimerServiceImpl{repo: repo}
}

// Start validates the selection and creates the backend record. The single
// open timer per user invariant is enforced by the repository.
func (s *TimerServiceImpl) Start(ctx context.Context, userID uuid.UUID, in StartTimer) (*model.Timer, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if !in.ClientID.Valid && !in.TaskID.Valid {
		return nil, fmt.Errorf("%w: need a client or a task", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t := &model.Timer{
		ID:          id,
		UserID:      userID,
		ClientID:    in.ClientID,
		TaskID:      in.TaskID,
		Description: in.Description,
		Billable:    in.Billable,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Stop finalizes the timer with the committed duration.
func (s *TimerServiceImpl) Stop(ctx context.Context, userID, id uuid.UUID, durationSeconds *int64) (*model.Timer, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	if durationSeconds != nil && *durationSeconds < 0 {
		return nil, fmt.Errorf("%w: negative duration", errs.ErrValidation)
	}
	now := time.Now().UTC()

	var dur int64
	if durationSeconds != nil {
		dur = *durationSeconds
	} else {
		t, err := s.repo.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if !t.Open() {
			return nil, errs.ErrTimerClosed
		}
		dur = int64(now.Sub(t.StartedAt).Seconds())
	}
	return s.repo.Stop(ctx, userID, id, now, dur)
}

// Get fetches a single timer by id.
func (s *TimerServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*model.Timer, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	return s.repo.Get(ctx, userID, id)
}

// List returns the user's timers. The caller finds the running one by
// looking for the record with no end time.
func (s *TimerServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Timer, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.repo.List(ctx, userID)
}

// Delete removes a timer record explicitly.
func (s *TimerServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	return s.repo.Delete(ctx, userID, id)
}
