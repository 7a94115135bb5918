package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/repository"
)

type fakeClientRepo struct {
	created *model.Client

	getOut *model.Client
	getErr error

	spentInHours float64
	spentInInc   bool
	spentOut     float64
	spentErr     error
}

var _ repository.ClientRepository = (*fakeClientRepo)(nil)

func (f *fakeClientRepo) Create(_ context.Context, c *model.Client) error {
	f.created = c
	return nil
}
func (f *fakeClientRepo) Update(_ context.Context, _ *model.Client) error { return nil }
func (f *fakeClientRepo) Get(_ context.Context, _, _ uuid.UUID) (*model.Client, error) {
	return f.getOut, f.getErr
}
func (f *fakeClientRepo) List(_ context.Context, _ uuid.UUID) ([]model.Client, error) {
	return nil, nil
}
func (f *fakeClientRepo) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }
func (f *fakeClientRepo) SetSpentHours(_ context.Context, _, _ uuid.UUID, hours float64, increment bool) (float64, error) {
	f.spentInHours, f.spentInInc = hours, increment
	return f.spentOut, f.spentErr
}

func TestClientService_Create_Validation(t *testing.T) {
	t.Parallel()
	repo := &fakeClientRepo{}
	s := NewClientService(repo)
	user := uuid.Must(uuid.NewV4())
	ctx := context.Background()

	if _, err := s.Create(ctx, user, UpsertClient{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty name, got %v", err)
	}
	if _, err := s.Create(ctx, user, UpsertClient{Name: "A", HourlyRate: -1}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on negative rate, got %v", err)
	}
	if repo.created != nil {
		t.Fatalf("repo should not be called on validation failure")
	}
}

func TestClientService_Profitability_DerivesPercentage(t *testing.T) {
	t.Parallel()
	clientID := uuid.Must(uuid.NewV4())
	repo := &fakeClientRepo{getOut: &model.Client{
		ID:            clientID,
		HourlyRate:    80,
		TargetHours:   10,
		SpentHours:    9,
		MonthlyBudget: 800,
	}}
	s := NewClientService(repo)
	user := uuid.Must(uuid.NewV4())

	p, err := s.Profitability(context.Background(), user, clientID)
	if err != nil {
		t.Fatalf("Profitability: %v", err)
	}
	if math.Abs(p.ProfitabilityPercentage-90) > 1e-9 {
		t.Fatalf("percentage=%v, want 90", p.ProfitabilityPercentage)
	}
	if p.ClientID != clientID || p.SpentHours != 9 {
		t.Fatalf("snapshot mismatch: %+v", p)
	}
}

func TestClientService_Profitability_ZeroTarget(t *testing.T) {
	t.Parallel()
	clientID := uuid.Must(uuid.NewV4())
	repo := &fakeClientRepo{getOut: &model.Client{ID: clientID, SpentHours: 4}}
	s := NewClientService(repo)
	user := uuid.Must(uuid.NewV4())

	p, err := s.Profitability(context.Background(), user, clientID)
	if err != nil {
		t.Fatalf("Profitability: %v", err)
	}
	if p.ProfitabilityPercentage != 0 {
		t.Fatalf("percentage=%v, want 0 for zero target", p.ProfitabilityPercentage)
	}
}

func TestClientService_UpdateSpentHours(t *testing.T) {
	t.Parallel()
	repo := &fakeClientRepo{spentOut: 2.5}
	s := NewClientService(repo)
	user := uuid.Must(uuid.NewV4())
	clientID := uuid.Must(uuid.NewV4())
	ctx := context.Background()

	total, err := s.UpdateSpentHours(ctx, user, clientID, 0.5, true)
	if err != nil {
		t.Fatalf("UpdateSpentHours: %v", err)
	}
	if repo.spentInHours != 0.5 || !repo.spentInInc {
		t.Fatalf("repo got hours=%v inc=%v", repo.spentInHours, repo.spentInInc)
	}
	if total != 2.5 {
		t.Fatalf("total=%v, want 2.5", total)
	}

	if _, err := s.UpdateSpentHours(ctx, user, clientID, -1, true); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on negative hours, got %v", err)
	}
}
