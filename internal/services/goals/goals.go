// Package goals tracks savings targets
package goals

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = apperr.NotFound("goal not found")
	ErrInvalidAmount = apperr.Validation("invalid amount")
	ErrNoChanges     = apperr.Validation("no valid fields provided for update")
)

// Store persists goals
type Store interface {
	Create(ctx context.Context, g *models.Goal) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Goal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error)
	Update(ctx context.Context, g *models.Goal) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// Service manages a user's savings goals
type Service struct {
	goals  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new goal service
func NewService(goals Store, logger *slog.Logger) *Service {
	return &Service{
		goals:  goals,
		now:    time.Now,
		logger: logging.Component(logger, logging.ComponentGoals),
	}
}

// Input carries the fields of a new goal
type Input struct {
	Name         string
	TargetAmount decimal.Decimal
	SavedAmount  decimal.Decimal
	DesiredDate  time.Time
	Note         string
}

// Create stores a goal. A goal saved up to its target at creation is
// already reached.
func (s *Service) Create(ctx context.Context, owner *models.User, in Input) (*models.Goal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || !in.TargetAmount.IsPositive() || in.DesiredDate.IsZero() {
		return nil, apperr.Validation("name, target amount and desired date are required")
	}
	if in.SavedAmount.IsNegative() {
		return nil, apperr.Validation("saved amount cannot be negative")
	}

	g := models.NewGoal(owner.ID, name, in.TargetAmount, in.SavedAmount, in.DesiredDate, strings.TrimSpace(in.Note))
	if err := s.goals.Create(ctx, g); err != nil {
		return nil, apperr.Internal("failed to create goal", err)
	}
	s.logger.InfoContext(ctx, "goal created", logging.FieldUserID, owner.ID, logging.FieldGoalID, g.ID)
	return g, nil
}

// List returns owner's active goals
func (s *Service) List(ctx context.Context, owner *models.User) ([]*models.Goal, error) {
	goals, err := s.goals.ListByUser(ctx, owner.ID)
	if err != nil {
		return nil, apperr.Internal("failed to fetch goals", err)
	}
	return goals, nil
}

// Get returns one active goal
func (s *Service) Get(ctx context.Context, owner *models.User, id uuid.UUID) (*models.Goal, error) {
	g, err := s.goals.GetByID(ctx, owner.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to fetch goal", err)
	}
	return g, nil
}

// UpdateInput carries the fields to change; nil fields are kept
type UpdateInput struct {
	Name         *string
	TargetAmount *decimal.Decimal
	SavedAmount  *decimal.Decimal
	DesiredDate  *time.Time
	Note         *string
}

// Update modifies a goal's details
func (s *Service) Update(ctx context.Context, owner *models.User, id uuid.UUID, in UpdateInput) (*models.Goal, error) {
	if in == (UpdateInput{}) {
		return nil, ErrNoChanges
	}

	g, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name is required")
		}
		g.Name = name
	}
	if in.TargetAmount != nil {
		if !in.TargetAmount.IsPositive() {
			return nil, apperr.Validation("target amount must be greater than zero")
		}
		g.TargetAmount = *in.TargetAmount
	}
	if in.SavedAmount != nil {
		if in.SavedAmount.IsNegative() {
			return nil, apperr.Validation("saved amount cannot be negative")
		}
		g.SavedAmount = *in.SavedAmount
	}
	if in.DesiredDate != nil {
		g.DesiredDate = *in.DesiredDate
	}
	if in.Note != nil {
		g.Note = strings.TrimSpace(*in.Note)
	}
	if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.IsReached = true
	}

	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddSaving adds a positive amount to the saved total
func (s *Service) AddSaving(ctx context.Context, owner *models.User, id uuid.UUID, amount decimal.Decimal) (*models.Goal, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	g, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	g.AddSaving(amount)

	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	if g.IsReached {
		s.logger.InfoContext(ctx, "goal reached", logging.FieldUserID, owner.ID, logging.FieldGoalID, g.ID)
	}
	return g, nil
}

// MarkReached flags a goal as reached regardless of the saved amount
func (s *Service) MarkReached(ctx context.Context, owner *models.User, id uuid.UUID) (*models.Goal, error) {
	g, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	g.IsReached = true

	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete soft-deletes a goal
func (s *Service) Delete(ctx context.Context, owner *models.User, id uuid.UUID) error {
	err := s.goals.SoftDelete(ctx, owner.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return apperr.Internal("failed to delete goal", err)
	}
	return nil
}

// Progress reports how far a goal is from its target
func (s *Service) Progress(ctx context.Context, owner *models.User, id uuid.UUID) (models.GoalProgress, error) {
	g, err := s.Get(ctx, owner, id)
	if err != nil {
		return models.GoalProgress{}, err
	}
	return g.Progress(s.now()), nil
}

func (s *Service) save(ctx context.Context, g *models.Goal) error {
	err := s.goals.Update(ctx, g)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return apperr.Internal("failed to update goal", err)
	}
	return nil
}
