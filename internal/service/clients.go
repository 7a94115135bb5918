package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/profit"
	"github.com/Stickybrown8/timetrack/internal/repository"
)

// UpsertClient carries the editable client fields, including the
// profitability configuration.
type UpsertClient struct {
	Name          string
	HourlyRate    float64
	TargetHours   float64
	MonthlyBudget float64
}

// ClientService defines client CRUD and profitability operations.
type ClientService interface {
	// Create inserts a new client.
	Create(ctx context.Context, userID uuid.UUID, in UpsertClient) (*model.Client, error)
	// Update rewrites the client's editable fields (profitability upsert).
	Update(ctx context.Context, userID, id uuid.UUID, in UpsertClient) (*model.Client, error)
	// Get returns a single client.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Client, error)
	// List returns the user's clients.
	List(ctx context.Context, userID uuid.UUID) ([]model.Client, error)
	// Delete removes a client.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// Profitability returns the per-client snapshot read by timer clients.
	Profitability(ctx context.Context, userID, clientID uuid.UUID) (*model.Profitability, error)
	// UpdateSpentHours sets or increments the spent-hours aggregate and
	// returns the new total.
	UpdateSpentHours(ctx context.Context, userID, clientID uuid.UUID, hours float64, incrementOnly bool) (float64, error)
}

type ClientServiceImpl struct {
	repo repository.ClientRepository
}

// NewClientService constructs ClientService.
func NewClientService(repo repository.ClientRepository) *ClientServiceImpl {
	return &ClientServiceImpl{repo: repo}
}

func validateClient(in UpsertClient) error {
	if in.Name == "" {
		return fmt.Errorf("%w: empty name", errs.ErrValidation)
	}
	if in.HourlyRate < 0 || in.TargetHours < 0 || in.MonthlyBudget < 0 {
		return fmt.Errorf("%w: negative rate/target/budget", errs.ErrValidation)
	}
	return nil
}

// Create inserts a new client with its profitability configuration.
func (s *ClientServiceImpl) Create(ctx context.Context, userID uuid.UUID, in UpsertClient) (*model.Client, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if err := validateClient(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Client{
		ID:            id,
		UserID:        userID,
		Name:          in.Name,
		HourlyRate:    in.HourlyRate,
		TargetHours:   in.TargetHours,
		MonthlyBudget: in.MonthlyBudget,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update rewrites rate/target/budget; spent hours are untouched here.
func (s *ClientServiceImpl) Update(ctx context.Context, userID, id uuid.UUID, in UpsertClient) (*model.Client, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	if err := validateClient(in); err != nil {
		return nil, err
	}
	c := &model.Client{
		ID:            id,
		UserID:        userID,
		Name:          in.Name,
		HourlyRate:    in.HourlyRate,
		TargetHours:   in.TargetHours,
		MonthlyBudget: in.MonthlyBudget,
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, id)
}

// Get fetches a single client.
func (s *ClientServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*model.Client, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	return s.repo.Get(ctx, userID, id)
}

// List returns the user's clients.
func (s *ClientServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Client, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.repo.List(ctx, userID)
}

// Delete removes a client.
func (s *ClientServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty userID/id", errs.ErrValidation)
	}
	return s.repo.Delete(ctx, userID, id)
}

// Profitability derives the snapshot from the stored client record.
func (s *ClientServiceImpl) Profitability(ctx context.Context, userID, clientID uuid.UUID) (*model.Profitability, error) {
	if userID == uuid.Nil || clientID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/clientID", errs.ErrValidation)
	}
	c, err := s.repo.Get(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	proj := profit.Project(profit.Inputs{
		HourlyRate:    c.HourlyRate,
		TargetHours:   c.TargetHours,
		SpentHours:    c.SpentHours,
		MonthlyBudget: c.MonthlyBudget,
	})
	return &model.Profitability{
		ClientID:                c.ID,
		HourlyRate:              c.HourlyRate,
		TargetHours:             c.TargetHours,
		SpentHours:              c.SpentHours,
		MonthlyBudget:           c.MonthlyBudget,
		ProfitabilityPercentage: proj.PercentageUsed,
	}, nil
}

// UpdateSpentHours applies a set or an increment. Increments are what timer
// clients send when committing a finished segment; spent hours never
// decrease through this path.
func (s *ClientServiceImpl) UpdateSpentHours(ctx context.Context, userID, clientID uuid.UUID, hours float64, incrementOnly bool) (float64, error) {
	if userID == uuid.Nil || clientID == uuid.Nil {
		return 0, fmt.Errorf("%w: empty userID/clientID", errs.ErrValidation)
	}
	if hours < 0 {
		return 0, fmt.Errorf("%w: negative hours", errs.ErrValidation)
	}
	return s.repo.SetSpentHours(ctx, userID, clientID, hours, incrementOnly)
}
