package postgres

import (
	"context"
	"testing"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestClientRepo_Create_OK_and_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	c := &model.Client{
		ID:            uuid.Must(uuid.NewV4()),
		UserID:        uuid.Must(uuid.NewV4()),
		Name:          "Acme",
		HourlyRate:    80,
		TargetHours:   10,
		MonthlyBudget: 800,
	}

	mock.ExpectExec(`INSERT INTO clients`).
		WithArgs(c.ID, c.UserID, c.Name, c.HourlyRate, c.TargetHours, c.SpentHours, c.MonthlyBudget).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, c))

	mock.ExpectExec(`INSERT INTO clients`).
		WithArgs(c.ID, c.UserID, c.Name, c.HourlyRate, c.TargetHours, c.SpentHours, c.MonthlyBudget).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, c), errs.ErrAlreadyExists)
}

func TestClientRepo_Update_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	c := &model.Client{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), Name: "Acme"}

	mock.ExpectExec(`UPDATE clients`).
		WithArgs(c.ID, c.UserID, c.Name, c.HourlyRate, c.TargetHours, c.MonthlyBudget).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Update(ctx, c), errs.ErrNotFound)
}

func TestClientRepo_SetSpentHours_Increment(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE clients SET spent_hours = spent_hours \+ \$3`).
		WithArgs(id, userID, 0.5).
		WillReturnRows(pgxmock.NewRows([]string{"spent_hours"}).AddRow(2.5))

	total, err := r.SetSpentHours(ctx, userID, id, 0.5, true)
	require.NoError(t, err)
	require.InDelta(t, 2.5, total, 1e-9)
}

func TestClientRepo_SetSpentHours_Absolute(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE clients SET spent_hours = \$3`).
		WithArgs(id, userID, 7.0).
		WillReturnRows(pgxmock.NewRows([]string{"spent_hours"}).AddRow(7.0))

	total, err := r.SetSpentHours(ctx, userID, id, 7.0, false)
	require.NoError(t, err)
	require.InDelta(t, 7.0, total, 1e-9)
}

func TestClientRepo_SetSpentHours_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE clients SET spent_hours = spent_hours \+ \$3`).
		WithArgs(id, userID, 1.0).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.SetSpentHours(ctx, userID, id, 1.0, true)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
