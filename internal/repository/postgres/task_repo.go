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

// TaskRepo implements TaskRepository using PostgreSQL. Writes that touch a
// second row (client task counter, user points) run in a transaction with
// abort-on-any-error, commit-on-success semantics.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const taskCols = `id, user_id, client_id, title, description, priority, status, estimated_hours, actual_hours, high_impact, completed_at, created_at`

// Create inserts a task and bumps the owning client's task counter atomically.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO tasks (id, user_id, client_id, title, description, priority, status, estimated_hours, actual_hours, high_impact)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err = tx.Exec(ctx, ins, t.ID, t.UserID, t.ClientID, t.Title, t.Description,
		t.Priority, t.Status, t.EstimatedHours, t.ActualHours, t.HighImpact); err != nil {
		return err
	}

	if t.ClientID.Valid {
		const bump = `UPDATE clients SET task_count = task_count + 1, updated_at=now() WHERE id=$1 AND user_id=$2`
		tag, execErr := tx.Exec(ctx, bump, t.ClientID.UUID, t.UserID)
		if execErr != nil {
			err = execErr
			return err
		}
		if tag.RowsAffected() == 0 {
			err = errs.ErrNotFound
			return err
		}
	}
	return nil
}

// Update rewrites the task's editable fields.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	const q = `
UPDATE tasks
SET title=$3, description=$4, priority=$5, status=$6, estimated_hours=$7, actual_hours=$8, high_impact=$9
WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, t.ID, t.UserID, t.Title, t.Description, t.Priority,
		t.Status, t.EstimatedHours, t.ActualHours, t.HighImpact)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Get returns a single task by id.
func (r *TaskRepo) Get(ctx context.Context, userID, id uuid.UUID) (*model.Task, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE user_id=$1 AND id=$2`
	return scanTask(r.db.Pool.QueryRow(ctx, q, userID, id))
}

// List returns the user's tasks, newest first.
func (r *TaskRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err = rows.Scan(&t.ID, &t.UserID, &t.ClientID, &t.Title, &t.Description, &t.Priority,
			&t.Status, &t.EstimatedHours, &t.ActualHours, &t.HighImpact, &t.CompletedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a task and keeps the client counter in step, atomically.
func (r *TaskRepo) Delete(ctx context.Context, userID, id uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const del = `DELETE FROM tasks WHERE id=$1 AND user_id=$2 RETURNING client_id`
	var clientID uuid.NullUUID
	if err = tx.QueryRow(ctx, del, id, userID).Scan(&clientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errs.ErrNotFound
		}
		return err
	}
	if clientID.Valid {
		const drop = `UPDATE clients SET task_count = GREATEST(task_count - 1, 0), updated_at=now() WHERE id=$1 AND user_id=$2`
		if _, err = tx.Exec(ctx, drop, clientID.UUID, userID); err != nil {
			return err
		}
	}
	return nil
}

// Complete marks a task done and awards points/experience in one
// transaction. A task that is already done is returned as-is with no award.
func (r *TaskRepo) Complete(ctx context.Context, userID, id uuid.UUID, points, experience int64) (task *model.Task, awarded int64, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `
UPDATE tasks SET status='done', completed_at=$3
WHERE id=$1 AND user_id=$2 AND status <> 'done'
RETURNING ` + taskCols
	task, err = scanTask(tx.QueryRow(ctx, upd, id, userID, time.Now().UTC()))
	if errors.Is(err, errs.ErrNotFound) {
		// either missing or already done; do not award twice
		task, err = scanTask(tx.QueryRow(ctx, `SELECT `+taskCols+` FROM tasks WHERE user_id=$1 AND id=$2`, userID, id))
		return task, 0, err
	}
	if err != nil {
		return nil, 0, err
	}

	const award = `UPDATE users SET points = points + $2, experience = experience + $3 WHERE id=$1`
	if _, err = tx.Exec(ctx, award, userID, points, experience); err != nil {
		return nil, 0, err
	}
	return task, points, nil
}

// Reopen returns a done task to pending without reclaiming points.
func (r *TaskRepo) Reopen(ctx context.Context, userID, id uuid.UUID) (*model.Task, error) {
	const q = `
UPDATE tasks SET status='pending', completed_at=NULL
WHERE id=$1 AND user_id=$2
RETURNING ` + taskCols
	return scanTask(r.db.Pool.QueryRow(ctx, q, id, userID))
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(&t.ID, &t.UserID, &t.ClientID, &t.Title, &t.Description, &t.Priority,
		&t.Status, &t.EstimatedHours, &t.ActualHours, &t.HighImpact, &t.CompletedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
