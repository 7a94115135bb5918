package postgres

import (
	"context"
	"errors"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ClientRepo implements ClientRepository using PostgreSQL.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs a client repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

const clientCols = `id, user_id, name, hourly_rate, target_hours, spent_hours, monthly_budget, task_count, created_at, updated_at`

// Create inserts a new client row.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	const q = `
INSERT INTO clients (id, user_id, name, hourly_rate, target_hours, spent_hours, monthly_budget)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.UserID, c.Name, c.HourlyRate, c.TargetHours, c.SpentHours, c.MonthlyBudget)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Update rewrites the client's editable fields (profitability upsert path).
func (r *ClientRepo) Update(ctx context.Context, c *model.Client) error {
	const q = `
UPDATE clients
SET name=$3, hourly_rate=$4, target_hours=$5, monthly_budget=$6, updated_at=now()
WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.UserID, c.Name, c.HourlyRate, c.TargetHours, c.MonthlyBudget)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Get returns a single client by id.
func (r *ClientRepo) Get(ctx context.Context, userID, id uuid.UUID) (*model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE user_id=$1 AND id=$2`
	return scanClient(r.db.Pool.QueryRow(ctx, q, userID, id))
}

// List returns the user's clients ordered by name.
func (r *ClientRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE user_id=$1 ORDER BY name ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err = rows.Scan(&c.ID, &c.UserID, &c.Name, &c.HourlyRate, &c.TargetHours, &c.SpentHours,
			&c.MonthlyBudget, &c.TaskCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a client row.
func (r *ClientRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM clients WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetSpentHours sets or increments the spent-hours aggregate and returns the
// new value. The increment form is what timer clients use when committing a
// finished segment.
func (r *ClientRepo) SetSpentHours(ctx context.Context, userID, id uuid.UUID, hours float64, increment bool) (float64, error) {
	const inc = `
UPDATE clients SET spent_hours = spent_hours + $3, updated_at=now()
WHERE id=$1 AND user_id=$2
RETURNING spent_hours`
	const set = `
UPDATE clients SET spent_hours = $3, updated_at=now()
WHERE id=$1 AND user_id=$2
RETURNING spent_hours`
	q := set
	if increment {
		q = inc
	}
	var total float64
	if err := r.db.Pool.QueryRow(ctx, q, id, userID, hours).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return total, nil
}

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.HourlyRate, &c.TargetHours, &c.SpentHours,
		&c.MonthlyBudget, &c.TaskCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
