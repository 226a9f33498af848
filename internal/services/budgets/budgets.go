// Package budgets manages spending limits and reports their current usage
package budgets

import (
	"context"
	"errors"
	"log/slog"
	"sort"
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
	ErrNotFound          = apperr.NotFound("budget not found")
	ErrInvalidCategories = apperr.Validation("one or more selected categories are invalid, use only predefined categories")
	ErrNoChanges         = apperr.Validation("no valid fields provided for update")
)

// Store persists budgets
type Store interface {
	Create(ctx context.Context, b *models.Budget) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Budget, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Budget, error)
	Update(ctx context.Context, b *models.Budget) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// SpendAggregator sums spend over a window
type SpendAggregator interface {
	SumSpend(ctx context.Context, userID uuid.UUID, categories []string, w models.Window) (decimal.Decimal, error)
}

// CategoryChecker reports category names that are not predefined
type CategoryChecker interface {
	Unknown(ctx context.Context, names []string) ([]string, error)
}

// Evaluator applies the alert rule to a single budget
type Evaluator interface {
	Evaluate(ctx context.Context, owner *models.User, b *models.Budget) (models.Transition, error)
}

// Service manages a user's budgets
type Service struct {
	budgets    Store
	spend      SpendAggregator
	categories CategoryChecker
	alerts     Evaluator
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new budget service
func NewService(budgets Store, spend SpendAggregator, categories CategoryChecker, alerts Evaluator, logger *slog.Logger) *Service {
	return &Service{
		budgets:    budgets,
		spend:      spend,
		categories: categories,
		alerts:     alerts,
		now:        time.Now,
		logger:     logging.Component(logger, logging.ComponentBudgets),
	}
}

// Input carries the fields of a new budget
type Input struct {
	Name       string
	Period     models.Period
	Amount     decimal.Decimal
	Categories []string
}

// Create stores a budget and evaluates it against the spend already
// recorded in its window
func (s *Service) Create(ctx context.Context, owner *models.User, in Input) (*models.Budget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if !in.Period.Valid() {
		return nil, apperr.Validation("period must be one of week, month, year, one-time")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	categories, err := s.checkCategories(ctx, in.Categories)
	if err != nil {
		return nil, err
	}

	b := models.NewBudget(owner.ID, name, in.Period, in.Amount, categories)
	if err := s.budgets.Create(ctx, b); err != nil {
		return nil, apperr.Internal("failed to create budget", err)
	}

	s.logger.InfoContext(ctx, "budget created",
		logging.FieldUserID, owner.ID,
		logging.FieldBudgetID, b.ID,
		"period", string(b.Period),
	)

	return s.reevaluate(ctx, owner, b)
}

// List returns owner's active budgets with their spend in the current window
func (s *Service) List(ctx context.Context, owner *models.User) ([]*models.BudgetUsage, error) {
	budgets, err := s.budgets.ListByUser(ctx, owner.ID)
	if err != nil {
		return nil, apperr.Internal("failed to fetch budgets", err)
	}

	usages := make([]*models.BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		u, err := s.usage(ctx, b)
		if err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, nil
}

// Get returns one active budget with its current usage
func (s *Service) Get(ctx context.Context, owner *models.User, id uuid.UUID) (*models.BudgetUsage, error) {
	b, err := s.find(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.usage(ctx, b)
}

// UpdateInput carries the fields to change; nil fields are kept
type UpdateInput struct {
	Name       *string
	Period     *models.Period
	Amount     *decimal.Decimal
	Categories []string
}

// Update modifies a budget and re-evaluates its alert state, since a new
// limit, period or category set can move it across the threshold
func (s *Service) Update(ctx context.Context, owner *models.User, id uuid.UUID, in UpdateInput) (*models.Budget, error) {
	if in.Name == nil && in.Period == nil && in.Amount == nil && in.Categories == nil {
		return nil, ErrNoChanges
	}

	b, err := s.find(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name is required")
		}
		b.Name = name
	}
	if in.Period != nil {
		if !in.Period.Valid() {
			return nil, apperr.Validation("period must be one of week, month, year, one-time")
		}
		b.Period = *in.Period
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, apperr.Validation("amount must be greater than zero")
		}
		b.Amount = *in.Amount
	}
	if in.Categories != nil {
		categories, err := s.checkCategories(ctx, in.Categories)
		if err != nil {
			return nil, err
		}
		b.Categories = categories
	}

	if err := s.budgets.Update(ctx, b); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internal("failed to update budget", err)
	}

	return s.reevaluate(ctx, owner, b)
}

// Delete soft-deletes a budget
func (s *Service) Delete(ctx context.Context, owner *models.User, id uuid.UUID) error {
	err := s.budgets.SoftDelete(ctx, owner.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return apperr.Internal("failed to delete budget", err)
	}
	s.logger.InfoContext(ctx, "budget deleted", logging.FieldUserID, owner.ID, logging.FieldBudgetID, id)
	return nil
}

func (s *Service) find(ctx context.Context, owner *models.User, id uuid.UUID) (*models.Budget, error) {
	b, err := s.budgets.GetByID(ctx, owner.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to fetch budget", err)
	}
	return b, nil
}

func (s *Service) usage(ctx context.Context, b *models.Budget) (*models.BudgetUsage, error) {
	w := b.Window(s.now().UTC())
	spent, err := s.spend.SumSpend(ctx, b.UserID, b.Categories, w)
	if err != nil {
		return nil, apperr.Internal("failed to compute budget usage", err)
	}
	return models.NewBudgetUsage(b, spent, w), nil
}

// reevaluate runs the alert rule and returns the budget as stored afterwards
func (s *Service) reevaluate(ctx context.Context, owner *models.User, b *models.Budget) (*models.Budget, error) {
	if _, err := s.alerts.Evaluate(ctx, owner, b); err != nil {
		return nil, apperr.Internal("failed to evaluate budget", err)
	}
	return s.find(ctx, owner, b.ID)
}

// checkCategories dedupes and sorts names and rejects unknown ones
func (s *Service) checkCategories(ctx context.Context, names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	categories := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		categories = append(categories, n)
	}
	if len(categories) == 0 {
		return nil, apperr.Validation("categories must be a non-empty list")
	}
	sort.Strings(categories)

	unknown, err := s.categories.Unknown(ctx, categories)
	if err != nil {
		return nil, apperr.Internal("failed to validate categories", err)
	}
	if len(unknown) > 0 {
		return nil, ErrInvalidCategories
	}
	return categories, nil
}
