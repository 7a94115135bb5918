package repository

import (
	"context"

	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ClientRepository stores billable clients and their embedded profitability
// records.
type ClientRepository interface {
	// Create inserts a new client.
	Create(ctx context.Context, c *model.Client) error
	// Update upserts the client's editable fields, including rate/target.
	Update(ctx context.Context, c *model.Client) error
	// Get returns a single client by ID.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Client, error)
	// List returns the user's clients ordered by name.
	List(ctx context.Context, userID uuid.UUID) ([]model.Client, error)
	// Delete removes a client.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// SetSpentHours sets or increments the spent-hours aggregate and
	// returns the new value. Increments keep spent hours monotonically
	// non-decreasing.
	SetSpentHours(ctx context.Context, userID, id uuid.UUID, hours float64, increment bool) (float64, error)
}
