package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/google/uuid"
)

// OTPRepository stores one-time codes
type OTPRepository struct {
	db *DB
}

// NewOTPRepository creates a new one-time code repository
func NewOTPRepository(db *DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Replace deletes every code held for the email and inserts code, in one
// transaction, so at most one live code exists per email
func (r *OTPRepository) Replace(ctx context.Context, code *models.OneTimeCode) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM one_time_codes WHERE email = ?", code.Email); err != nil {
		return fmt.Errorf("failed to clear codes: %w", err)
	}

	query := `
		INSERT INTO one_time_codes (id, user_id, email, code, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		code.ID.String(),
		code.UserID.String(),
		code.Email,
		code.Code,
		string(code.Purpose),
		dbTime(code.ExpiresAt),
		dbTime(code.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert code: %w", err)
	}

	return tx.Commit()
}

// GetByEmail returns the live code for an email
func (r *OTPRepository) GetByEmail(ctx context.Context, email string) (*models.OneTimeCode, error) {
	query := `
		SELECT id, user_id, email, code, purpose, expires_at, created_at
		FROM one_time_codes WHERE email = ?
		ORDER BY created_at DESC LIMIT 1
	`
	var c models.OneTimeCode
	var purpose string

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&c.ID,
		&c.UserID,
		&c.Email,
		&c.Code,
		&purpose,
		&c.ExpiresAt,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}

	c.Purpose = models.OTPPurpose(purpose)
	return &c, nil
}

// Delete consumes a code. It reports false when the code was already gone,
// which lets concurrent verifications agree on a single winner.
func (r *OTPRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM one_time_codes WHERE id = ?", id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
