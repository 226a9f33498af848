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
	"github.com/shopspring/decimal"
)

// ExpenseRepository provides expense data access
type ExpenseRepository struct {
	db *DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// ExpenseFilter bounds a listing by date. A nil bound is open; To is exclusive.
type ExpenseFilter struct {
	From *time.Time
	To   *time.Time
}

const expenseColumns = `id, user_id, title, amount, category, date, note, status, created_at, updated_at`

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	query := `INSERT INTO expenses (` + expenseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID.String(),
		e.UserID.String(),
		e.Title,
		e.Amount.String(),
		e.Category,
		dbTime(e.Date),
		e.Note,
		string(e.Status),
		dbTime(e.CreatedAt),
		dbTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an active expense owned by userID
func (r *ExpenseRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ? AND user_id = ? AND status = ?`
	return scanExpense(r.db.QueryRowContext(ctx, query, id.String(), userID.String(), string(models.StatusActive)))
}

// List returns a user's active expenses within the filter, newest first
func (r *ExpenseRepository) List(ctx context.Context, userID uuid.UUID, f ExpenseFilter) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? AND status = ?`
	args := []any{userID.String(), string(models.StatusActive)}

	if f.From != nil {
		query += " AND date >= ?"
		args = append(args, dbTime(*f.From))
	}
	if f.To != nil {
		query += " AND date < ?"
		args = append(args, dbTime(*f.To))
	}
	query += " ORDER BY date DESC, created_at DESC"

	return r.list(ctx, query, args...)
}

// ListHistory returns every expense of a user, deleted ones included
func (r *ExpenseRepository) ListHistory(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? ORDER BY date DESC, created_at DESC`
	return r.list(ctx, query, userID.String())
}

// ListAllActive returns the active expenses of every user
func (r *ExpenseRepository) ListAllActive(ctx context.Context) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE status = ? ORDER BY date DESC, created_at DESC`
	return r.list(ctx, query, string(models.StatusActive))
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Update modifies an active expense
func (r *ExpenseRepository) Update(ctx context.Context, e *models.Expense) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET title = ?, amount = ?, category = ?, date = ?, note = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`,
		e.Title,
		e.Amount.String(),
		e.Category,
		dbTime(e.Date),
		e.Note,
		dbTime(e.UpdatedAt),
		e.ID.String(),
		e.UserID.String(),
		string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return expectAffected(res)
}

// SoftDelete marks an expense deleted
func (r *ExpenseRepository) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET status = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?",
		string(models.StatusDeleted), dbTime(time.Now()), id.String(), userID.String(), string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectAffected(res)
}

// SumSpend totals a user's active expenses in any of the categories whose
// date falls in the window. Amounts are summed as decimals, never floats.
func (r *ExpenseRepository) SumSpend(ctx context.Context, userID uuid.UUID, categories []string, w models.Window) (decimal.Decimal, error) {
	if len(categories) == 0 {
		return decimal.Zero, nil
	}

	args := []any{userID.String(), string(models.StatusActive), dbTime(w.Start), dbTime(w.End)}
	for _, c := range categories {
		args = append(args, c)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT amount FROM expenses
		WHERE user_id = ? AND status = ? AND date >= ? AND date < ?
		AND category IN (`+placeholders(len(categories))+`)
	`, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum spend: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// CategoryTotals sums a user's active expenses per category within the
// window, largest total first
func (r *ExpenseRepository) CategoryTotals(ctx context.Context, userID uuid.UUID, w models.Window) ([]models.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, amount FROM expenses
		WHERE user_id = ? AND status = ? AND date >= ? AND date < ?
	`, userID.String(), string(models.StatusActive), dbTime(w.Start), dbTime(w.End))
	if err != nil {
		return nil, fmt.Errorf("failed to total categories: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var amount decimal.Decimal
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, err
		}
		totals[category] = totals[category].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]models.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		result = append(result, models.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Total.Cmp(result[j].Total); c != 0 {
			return c > 0
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// CountActive counts active expenses across all users
func (r *ExpenseRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE status = ?", string(models.StatusActive)).Scan(&count)
	return count, err
}

func scanExpense(s scanner) (*models.Expense, error) {
	var e models.Expense
	var status string

	err := s.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Amount,
		&e.Category,
		&e.Date,
		&e.Note,
		&status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	e.Status = models.Status(status)
	return &e, nil
}
