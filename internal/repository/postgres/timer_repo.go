package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TimerRepo implements TimerRepository using PostgreSQL. The one-open-timer
// invariant is carried by a partial unique index on (user_id) WHERE
// ended_at IS NULL.
type TimerRepo struct{ db *DB }

// NewTimerRepo constructs a timer repository.
func NewTimerRepo(db *DB) *TimerRepo { return &TimerRepo{db: db} }

const timerCols = `id, user_id, client_id, task_id, description, billable, started_at, ended_at, duration_seconds, created_at`

// Create inserts a new open timer row.
func (r *TimerRepo) Create(ctx context.Context, t *model.Timer) error {
	const q = `
INSERT INTO timers (id, user_id, client_id, task_id, description, billable, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.UserID, t.ClientID, t.TaskID, t.Description, t.Billable, t.StartedAt)
	if isUniqueViolation(err) {
		return errs.ErrTimerOpen
	}
	return err
}

// Stop finalizes an open timer, setting end time and committed duration.
// Finalizing an already-stopped timer returns ErrTimerClosed.
func (r *TimerRepo) Stop(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, durationSeconds int64) (*model.Timer, error) {
	const q = `
UPDATE timers SET ended_at=$3, duration_seconds=$4
WHERE id=$1 AND user_id=$2 AND ended_at IS NULL
RETURNING ` + timerCols
	t, err := scanTimer(r.db.Pool.QueryRow(ctx, q, id, userID, endedAt, durationSeconds))
	if errors.Is(err, errs.ErrNotFound) {
		// распознаём: таймер уже остановлен или вовсе не существует
		if _, gerr := r.Get(ctx, userID, id); gerr == nil {
			return nil, errs.ErrTimerClosed
		}
		return nil, errs.ErrNotFound
	}
	return t, err
}

// Get returns a single timer by id.
func (r *TimerRepo) Get(ctx context.Context, userID, id uuid.UUID) (*model.Timer, error) {
	const q = `SELECT ` + timerCols + ` FROM timers WHERE user_id=$1 AND id=$2`
	return scanTimer(r.db.Pool.QueryRow(ctx, q, userID, id))
}

// FindOpen returns the user's open timer, if any.
func (r *TimerRepo) FindOpen(ctx context.Context, userID uuid.UUID) (*model.Timer, error) {
	const q = `SELECT ` + timerCols + ` FROM timers WHERE user_id=$1 AND ended_at IS NULL`
	return scanTimer(r.db.Pool.QueryRow(ctx, q, userID))
}

// List returns all of the user's timers, newest first.
func (r *TimerRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Timer, error) {
	const q = `SELECT ` + timerCols + ` FROM timers WHERE user_id=$1 ORDER BY started_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Timer
	for rows.Next() {
		var t model.Timer
		if err = rows.Scan(&t.ID, &t.UserID, &t.ClientID, &t.TaskID, &t.Description, &t.Billable,
			&t.StartedAt, &t.EndedAt, &t.DurationSeconds, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a timer row.
func (r *TimerRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM timers WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanTimer(row pgx.Row) (*model.Timer, error) {
	var t model.Timer
	if err := row.Scan(&t.ID, &t.UserID, &t.ClientID, &t.TaskID, &t.Description, &t.Billable,
		&t.StartedAt, &t.EndedAt, &t.DurationSeconds, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
