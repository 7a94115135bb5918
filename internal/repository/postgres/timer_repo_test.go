package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func timerRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "client_id", "task_id", "description", "billable",
		"started_at", "ended_at", "duration_seconds", "created_at",
	})
}

func TestTimerRepo_Create_OK_and_OpenConflict(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTimerRepo(db)
	ctx := context.Background()

	tm := &model.Timer{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		ClientID:  uuid.NullUUID{UUID: uuid.Must(uuid.NewV4()), Valid: true},
		Billable:  true,
		StartedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO timers`).
		WithArgs(tm.ID, tm.UserID, tm.ClientID, tm.TaskID, tm.Description, tm.Billable, tm.StartedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, tm))

	// partial unique index (user_id WHERE ended_at IS NULL) violation
	mock.ExpectExec(`INSERT INTO timers`).
		WithArgs(tm.ID, tm.UserID, tm.ClientID, tm.TaskID, tm.Description, tm.Billable, tm.StartedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, tm), errs.ErrTimerOpen)
}

func TestTimerRepo_Stop_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTimerRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	started := time.Now().UTC().Add(-30 * time.Minute)
	ended := time.Now().UTC()
	dur := int64(1800)

	mock.ExpectQuery(`UPDATE timers SET ended_at=\$3, duration_seconds=\$4`).
		WithArgs(id, userID, ended, dur).
		WillReturnRows(timerRows().AddRow(
			id, userID, uuid.NullUUID{}, uuid.NullUUID{}, "", true,
			started, &ended, &dur, started))

	got, err := r.Stop(ctx, userID, id, ended, dur)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	require.Equal(t, dur, *got.DurationSeconds)
}

func TestTimerRepo_Stop_AlreadyClosed(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTimerRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	started := time.Now().UTC().Add(-time.Hour)
	ended := started.Add(30 * time.Minute)
	dur := int64(1800)

	mock.ExpectQuery(`UPDATE timers SET ended_at=\$3, duration_seconds=\$4`).
		WithArgs(id, userID, ended, dur).
		WillReturnError(pgx.ErrNoRows)
	// disambiguation read finds the finalized row
	mock.ExpectQuery(`SELECT .+ FROM timers WHERE user_id=\$1 AND id=\$2`).
		WithArgs(userID, id).
		WillReturnRows(timerRows().AddRow(
			id, userID, uuid.NullUUID{}, uuid.NullUUID{}, "", true,
			started, &ended, &dur, started))

	_, err := r.Stop(ctx, userID, id, ended, dur)
	require.ErrorIs(t, err, errs.ErrTimerClosed)
}

func TestTimerRepo_Stop_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTimerRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	ended := time.Now().UTC()

	mock.ExpectQuery(`UPDATE timers SET ended_at=\$3, duration_seconds=\$4`).
		WithArgs(id, userID, ended, int64(60)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM timers WHERE user_id=\$1 AND id=\$2`).
		WithArgs(userID, id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Stop(ctx, userID, id, ended, 60)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTimerRepo_FindOpen(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTimerRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	started := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM timers WHERE user_id=\$1 AND ended_at IS NULL`).
		WithArgs(userID).
		WillReturnRows(timerRows().AddRow(
			id, userID, uuid.NullUUID{}, uuid.NullUUID{}, "desc", true,
			started, nil, nil, started))
	got, err := r.FindOpen(ctx, userID)
	require.NoError(t, err)
	require.True(t, got.Open())

	mock.ExpectQuery(`SELECT .+ FROM timers WHERE user_id=\$1 AND ended_at IS NULL`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.FindOpen(ctx, userID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTimerRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTimerRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM timers WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, userID, id))

	mock.ExpectExec(`DELETE FROM timers WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, userID, id), errs.ErrNotFound)
}
