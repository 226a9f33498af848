package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/google/uuid"
)

// GoalRepository provides savings goal data access
type GoalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

const goalColumns = `id, user_id, name, target_amount, saved_amount, desired_date, note, is_reached, status, created_at, updated_at`

// Create inserts a new goal
func (r *GoalRepository) Create(ctx context.Context, g *models.Goal) error {
	query := `INSERT INTO goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		g.ID.String(),
		g.UserID.String(),
		g.Name,
		g.TargetAmount.String(),
		g.SavedAmount.String(),
		dbTime(g.DesiredDate),
		g.Note,
		g.IsReached,
		string(g.Status),
		dbTime(g.CreatedAt),
		dbTime(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetByID retrieves an active goal owned by userID
func (r *GoalRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = ? AND user_id = ? AND status = ?`
	return scanGoal(r.db.QueryRowContext(ctx, query, id.String(), userID.String(), string(models.StatusActive)))
}

// ListByUser returns a user's active goals, nearest desired date first
func (r *GoalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ? AND status = ? ORDER BY desired_date`
	rows, err := r.db.QueryContext(ctx, query, userID.String(), string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []*models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// Update modifies an active goal
func (r *GoalRepository) Update(ctx context.Context, g *models.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_amount = ?, saved_amount = ?, desired_date = ?, note = ?, is_reached = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`,
		g.Name,
		g.TargetAmount.String(),
		g.SavedAmount.String(),
		dbTime(g.DesiredDate),
		g.Note,
		g.IsReached,
		dbTime(g.UpdatedAt),
		g.ID.String(),
		g.UserID.String(),
		string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return expectAffected(res)
}

// SoftDelete marks a goal deleted
func (r *GoalRepository) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE goals SET status = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?",
		string(models.StatusDeleted), dbTime(time.Now()), id.String(), userID.String(), string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return expectAffected(res)
}

// CountActive counts active goals across all users
func (r *GoalRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM goals WHERE status = ?", string(models.StatusActive)).Scan(&count)
	return count, err
}

func scanGoal(s scanner) (*models.Goal, error) {
	var g models.Goal
	var status string

	err := s.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.TargetAmount,
		&g.SavedAmount,
		&g.DesiredDate,
		&g.Note,
		&g.IsReached,
		&status,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	g.Status = models.Status(status)
	return &g, nil
}
