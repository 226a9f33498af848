// Package expenses records spending and keeps budget alerts in step with it
package expenses

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
	ErrNotFound        = apperr.NotFound("expense not found")
	ErrInvalidCategory = apperr.Validation("invalid category")
	ErrInvalidFilter   = apperr.Validation("invalid filter")
	ErrInvalidRange    = apperr.Validation("invalid range value")
	ErrInvalidDates    = apperr.Validation("invalid custom dates")
	ErrNoChanges       = apperr.Validation("no valid fields provided for update")
)

// Store persists expenses
type Store interface {
	Create(ctx context.Context, e *models.Expense) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, userID uuid.UUID, f storage.ExpenseFilter) ([]*models.Expense, error)
	Update(ctx context.Context, e *models.Expense) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// CategoryChecker reports category names that are not predefined
type CategoryChecker interface {
	Unknown(ctx context.Context, names []string) ([]string, error)
}

// Evaluator re-evaluates the budgets covering categories
type Evaluator interface {
	EvaluateCategories(ctx context.Context, owner *models.User, categories ...string) error
}

// Service manages a user's expenses
type Service struct {
	expenses   Store
	categories CategoryChecker
	alerts     Evaluator
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new expense service
func NewService(expenses Store, categories CategoryChecker, alerts Evaluator, logger *slog.Logger) *Service {
	return &Service{
		expenses:   expenses,
		categories: categories,
		alerts:     alerts,
		now:        time.Now,
		logger:     logging.Component(logger, logging.ComponentExpense),
	}
}

// Input carries the fields of a new expense. A zero Date means today.
type Input struct {
	Title    string
	Amount   decimal.Decimal
	Category string
	Date     time.Time
	Note     string
}

// Create records an expense and re-evaluates the budgets covering its category
func (s *Service) Create(ctx context.Context, owner *models.User, in Input) (*models.Expense, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	e := models.NewExpense(owner.ID, in.Title, in.Amount, in.Category, in.Date, strings.TrimSpace(in.Note))
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, apperr.Internal("failed to add expense", err)
	}

	s.logger.InfoContext(ctx, "expense created",
		logging.FieldUserID, owner.ID,
		logging.FieldExpenseID, e.ID,
		"category", e.Category,
		"amount", e.Amount.String(),
	)

	if err := s.alerts.EvaluateCategories(ctx, owner, e.Category); err != nil {
		return nil, apperr.Internal("failed to evaluate budgets", err)
	}
	return e, nil
}

// Get returns one of owner's active expenses
func (s *Service) Get(ctx context.Context, owner *models.User, id uuid.UUID) (*models.Expense, error) {
	e, err := s.expenses.GetByID(ctx, owner.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to fetch expense", err)
	}
	return e, nil
}

// ListQuery selects a date range for a listing. Filter takes precedence over
// Range; an explicit Start and End pair overrides both.
type ListQuery struct {
	Filter string
	Range  string
	Start  string
	End    string
}

// List returns owner's active expenses in the queried range, newest first
func (s *Service) List(ctx context.Context, owner *models.User, q ListQuery) ([]*models.Expense, error) {
	f, err := q.resolve(s.now().UTC())
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenses.List(ctx, owner.ID, f)
	if err != nil {
		return nil, apperr.Internal("failed to fetch expenses", err)
	}
	return expenses, nil
}

func (q ListQuery) resolve(now time.Time) (storage.ExpenseFilter, error) {
	var f storage.ExpenseFilter

	switch {
	case q.Filter != "":
		w, err := filterWindow(q.Filter, now)
		if err != nil {
			return f, err
		}
		f.From, f.To = &w.Start, &w.End
	case q.Range != "":
		from, err := rangeStart(q.Range, now)
		if err != nil {
			return f, err
		}
		f.From = &from
	}

	if q.Start != "" && q.End != "" {
		start, err := models.ParseDate(q.Start)
		if err != nil {
			return f, ErrInvalidDates
		}
		end, err := models.ParseDate(q.End)
		if err != nil {
			return f, ErrInvalidDates
		}
		// the end date is inclusive
		y, m, d := end.Date()
		end = time.Date(y, m, d, 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)
		if !start.Before(end) {
			return f, ErrInvalidDates
		}
		f.From, f.To = &start, &end
	}

	return f, nil
}

func filterWindow(filter string, now time.Time) (models.Window, error) {
	switch filter {
	case "today":
		y, m, d := now.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		return models.Window{Start: start, End: start.AddDate(0, 0, 1)}, nil
	case "this_week":
		return models.BudgetWindow(models.PeriodWeek, now, now), nil
	case "this_month":
		return models.BudgetWindow(models.PeriodMonth, now, now), nil
	case "this_year":
		return models.BudgetWindow(models.PeriodYear, now, now), nil
	}
	return models.Window{}, ErrInvalidFilter
}

func rangeStart(r string, now time.Time) (time.Time, error) {
	switch r {
	case "7d":
		return now.AddDate(0, 0, -7), nil
	case "30d":
		return now.AddDate(0, 0, -30), nil
	case "12w":
		return now.AddDate(0, 0, -12*7), nil
	case "6m":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, ErrInvalidRange
}

// UpdateInput carries the fields to change; nil fields are kept
type UpdateInput struct {
	Title    *string
	Amount   *decimal.Decimal
	Category *string
	Date     *time.Time
	Note     *string
}

// Update modifies an expense and re-evaluates the budgets covering both its
// old and its new category
func (s *Service) Update(ctx context.Context, owner *models.User, id uuid.UUID, in UpdateInput) (*models.Expense, error) {
	if in == (UpdateInput{}) {
		return nil, ErrNoChanges
	}

	e, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	oldCategory := e.Category

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title is required")
		}
		e.Title = title
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, apperr.Validation("amount must be greater than zero")
		}
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if err := s.checkCategory(ctx, category); err != nil {
			return nil, err
		}
		e.Category = category
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Note != nil {
		e.Note = strings.TrimSpace(*in.Note)
	}

	if err := s.expenses.Update(ctx, e); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internal("failed to update expense", err)
	}

	categories := []string{e.Category}
	if oldCategory != e.Category {
		categories = append(categories, oldCategory)
	}
	if err := s.alerts.EvaluateCategories(ctx, owner, categories...); err != nil {
		return nil, apperr.Internal("failed to evaluate budgets", err)
	}
	return e, nil
}

// Delete soft-deletes an expense and re-evaluates the budgets covering it
func (s *Service) Delete(ctx context.Context, owner *models.User, id uuid.UUID) error {
	e, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.expenses.SoftDelete(ctx, owner.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return apperr.Internal("failed to delete expense", err)
	}

	s.logger.InfoContext(ctx, "expense deleted", logging.FieldUserID, owner.ID, logging.FieldExpenseID, id)

	if err := s.alerts.EvaluateCategories(ctx, owner, e.Category); err != nil {
		return apperr.Internal("failed to evaluate budgets", err)
	}
	return nil
}

func (s *Service) checkCategory(ctx context.Context, category string) error {
	if category == "" {
		return apperr.Validation("category is required")
	}
	unknown, err := s.categories.Unknown(ctx, []string{category})
	if err != nil {
		return apperr.Internal("failed to validate category", err)
	}
	if len(unknown) > 0 {
		return ErrInvalidCategory
	}
	return nil
}
