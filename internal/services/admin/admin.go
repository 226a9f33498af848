// Package admin provides the operator view over users and their data
package admin

import (
	"context"
	"errors"
	"log/slog"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/google/uuid"
)

var ErrUserNotFound = apperr.NotFound("user not found")

// UserStore reads and toggles accounts
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error
}

// ExpenseStore reads expenses across users
type ExpenseStore interface {
	ListHistory(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error)
	ListAllActive(ctx context.Context) ([]*models.Expense, error)
	CountActive(ctx context.Context) (int, error)
}

// Counter counts active records
type Counter interface {
	CountActive(ctx context.Context) (int, error)
}

// Stats are platform-wide totals
type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalExpenses int `json:"totalExpenses"`
	TotalGoals    int `json:"totalGoals"`
	TotalBudgets  int `json:"totalBudget"`
}

// Service implements the admin operations
type Service struct {
	users    UserStore
	expenses ExpenseStore
	budgets  Counter
	goals    Counter
	logger   *slog.Logger
}

// NewService creates a new admin service
func NewService(users UserStore, expenses ExpenseStore, budgets, goals Counter, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		expenses: expenses,
		budgets:  budgets,
		goals:    goals,
		logger:   logging.Component(logger, logging.ComponentAdmin),
	}
}

// ListUsers returns every non-admin account
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, apperr.Internal("failed to fetch users", err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// UserExpenses returns all expenses of a user, deleted ones included
func (s *Service) UserExpenses(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to fetch expenses", err)
	}
	return expenses, nil
}

// Deactivate blocks an account. Its sessions stay in the ledger so that a
// presented token is refused as deactivated rather than as unknown.
func (s *Service) Deactivate(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	return s.setStatus(ctx, actor, userID, models.AccountDeactivated)
}

// Activate re-enables a deactivated account
func (s *Service) Activate(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	return s.setStatus(ctx, actor, userID, models.AccountActive)
}

func (s *Service) setStatus(ctx context.Context, actor *models.User, userID uuid.UUID, status models.AccountStatus) error {
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetStatus(ctx, userID, status); err != nil {
		return apperr.Internal("failed to update account status", err)
	}
	s.logger.InfoContext(ctx, "account status changed",
		logging.FieldUserID, userID,
		"status", string(status),
		"admin_id", actor.ID,
	)
	return nil
}

// Stats counts users and active records
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	var err error

	if st.TotalUsers, err = s.users.CountByRole(ctx, models.RoleUser); err != nil {
		return nil, apperr.Internal("failed to fetch stats", err)
	}
	if st.TotalExpenses, err = s.expenses.CountActive(ctx); err != nil {
		return nil, apperr.Internal("failed to fetch stats", err)
	}
	if st.TotalGoals, err = s.goals.CountActive(ctx); err != nil {
		return nil, apperr.Internal("failed to fetch stats", err)
	}
	if st.TotalBudgets, err = s.budgets.CountActive(ctx); err != nil {
		return nil, apperr.Internal("failed to fetch stats", err)
	}
	return &st, nil
}

// ExportExpenses returns the active expenses of every user
func (s *Service) ExportExpenses(ctx context.Context) ([]*models.Expense, error) {
	expenses, err := s.expenses.ListAllActive(ctx)
	if err != nil {
		return nil, apperr.Internal("export failed", err)
	}
	return expenses, nil
}

// findUser resolves a non-admin account; admins are not managed here
func (s *Service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to fetch user", err)
	}
	if u.IsAdmin() {
		return nil, ErrUserNotFound
	}
	return u, nil
}
