package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/google/uuid"
)

// BudgetRepository provides budget data access. Only active budgets are
// visible to lookups.
type BudgetRepository struct {
	db *DB
}

// NewBudgetRepository creates a new budget repository
func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const budgetColumns = `b.id, b.user_id, b.name, b.period, b.amount, b.status, b.notified, b.created_at, b.updated_at`

// Create inserts a budget together with its category set
func (r *BudgetRepository) Create(ctx context.Context, b *models.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO budgets (id, user_id, name, period, amount, status, notified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		b.ID.String(),
		b.UserID.String(),
		b.Name,
		string(b.Period),
		b.Amount.String(),
		string(b.Status),
		b.Notified,
		dbTime(b.CreatedAt),
		dbTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	if err := insertBudgetCategories(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID retrieves an active budget owned by userID
func (r *BudgetRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets b WHERE b.id = ? AND b.user_id = ? AND b.status = ?`
	b, err := scanBudget(r.db.QueryRowContext(ctx, query, id.String(), userID.String(), string(models.StatusActive)))
	if err != nil {
		return nil, err
	}
	if err := r.loadCategories(ctx, []*models.Budget{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the active budgets of a user, newest first
func (r *BudgetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets b WHERE b.user_id = ? AND b.status = ? ORDER BY b.created_at DESC`
	return r.list(ctx, query, userID.String(), string(models.StatusActive))
}

// ListCoveringCategory returns the active budgets of a user whose category
// set contains category
func (r *BudgetRepository) ListCoveringCategory(ctx context.Context, userID uuid.UUID, category string) ([]*models.Budget, error) {
	query := `
		SELECT ` + budgetColumns + ` FROM budgets b
		JOIN budget_categories bc ON bc.budget_id = b.id
		WHERE b.user_id = ? AND b.status = ? AND bc.category = ?
		ORDER BY b.created_at
	`
	return r.list(ctx, query, userID.String(), string(models.StatusActive), category)
}

func (r *BudgetRepository) list(ctx context.Context, query string, args ...any) ([]*models.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	var budgets []*models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		budgets = append(budgets, b)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// Rows must be closed before the next query on the single connection
	if err := r.loadCategories(ctx, budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// Update replaces a budget's name, period, amount and category set
func (r *BudgetRepository) Update(ctx context.Context, b *models.Budget) error {
	b.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE budgets SET name = ?, period = ?, amount = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`,
		b.Name,
		string(b.Period),
		b.Amount.String(),
		dbTime(b.UpdatedAt),
		b.ID.String(),
		b.UserID.String(),
		string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM budget_categories WHERE budget_id = ?", b.ID.String()); err != nil {
		return fmt.Errorf("failed to clear budget categories: %w", err)
	}
	if err := insertBudgetCategories(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// SoftDelete marks a budget deleted
func (r *BudgetRepository) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET status = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?",
		string(models.StatusDeleted), dbTime(time.Now()), id.String(), userID.String(), string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return expectAffected(res)
}

// CompareAndSetNotified flips the alert flag from `from` to `to` and reports
// whether this call made the change. Concurrent evaluators racing on the same
// budget see exactly one winner.
func (r *BudgetRepository) CompareAndSetNotified(ctx context.Context, id uuid.UUID, from, to bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET notified = ? WHERE id = ? AND notified = ?",
		to, id.String(), from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update budget alert state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountActive counts active budgets across all users
func (r *BudgetRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM budgets WHERE status = ?", string(models.StatusActive)).Scan(&count)
	return count, err
}

func insertBudgetCategories(ctx context.Context, tx *sql.Tx, b *models.Budget) error {
	for _, c := range b.Categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO budget_categories (budget_id, category) VALUES (?, ?)", b.ID.String(), c,
		); err != nil {
			return fmt.Errorf("failed to add budget category %q: %w", c, err)
		}
	}
	return nil
}

func (r *BudgetRepository) loadCategories(ctx context.Context, budgets []*models.Budget) error {
	if len(budgets) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Budget, len(budgets))
	args := make([]any, 0, len(budgets))
	for _, b := range budgets {
		b.Categories = nil
		byID[b.ID] = b
		args = append(args, b.ID.String())
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT budget_id, category FROM budget_categories WHERE budget_id IN ("+placeholders(len(args))+")", args...)
	if err != nil {
		return fmt.Errorf("failed to load budget categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var category string
		if err := rows.Scan(&id, &category); err != nil {
			return err
		}
		if b, ok := byID[id]; ok {
			b.Categories = append(b.Categories, category)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, b := range budgets {
		sort.Strings(b.Categories)
	}
	return nil
}

func scanBudget(s scanner) (*models.Budget, error) {
	var b models.Budget
	var period, status string

	err := s.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&period,
		&b.Amount,
		&status,
		&b.Notified,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan budget: %w", err)
	}

	b.Period = models.Period(period)
	b.Status = models.Status(status)
	return &b, nil
}
