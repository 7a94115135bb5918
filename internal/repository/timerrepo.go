package repository

import (
	"context"
	"time"

	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TimerRepository stores timer records. At most one open timer may exist per
// user; Create returns errs.ErrTimerOpen when that constraint is violated.
type TimerRepository interface {
	// Create inserts a new open timer.
	Create(ctx context.Context, t *model.Timer) error
	// Stop finalizes an open timer with end time and committed duration.
	Stop(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, durationSeconds int64) (*model.Timer, error)
	// Get returns a single timer by ID.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Timer, error)
	// List returns the user's timers, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Timer, error)
	// FindOpen returns the user's open timer, or errs.ErrNotFound.
	FindOpen(ctx context.Context, userID uuid.UUID) (*model.Timer, error)
	// Delete removes a timer record.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
