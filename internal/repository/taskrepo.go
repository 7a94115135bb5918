package repository

import (
	"context"

	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TaskRepository stores tasks. Writes that touch a second record (the
// client's task counter, the user's points) are atomic: both rows change or
// neither does.
type TaskRepository interface {
	// Create inserts a task and, when it is tied to a client, increments
	// that client's task counter in the same transaction.
	Create(ctx context.Context, t *model.Task) error
	// Update rewrites the task's editable fields.
	Update(ctx context.Context, t *model.Task) error
	// Get returns a single task by ID.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Task, error)
	// List returns the user's tasks, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	// Delete removes a task and decrements the owning client's task counter
	// in the same transaction.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// Complete marks the task done and awards points/experience to the user
	// in one transaction. Already-done tasks award nothing and return the
	// task unchanged. Returns the awarded points (0 when none).
	Complete(ctx context.Context, userID, id uuid.UUID, points, experience int64) (*model.Task, int64, error)
	// Reopen returns a done task to pending. Points are not clawed back.
	Reopen(ctx context.Context, userID, id uuid.UUID) (*model.Task, error)
}
