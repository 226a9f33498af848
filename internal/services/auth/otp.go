package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/google/uuid"
)

// Outcome is the result of verifying a one-time code
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeNotFound
	OutcomeMismatched
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeMismatched:
		return "mismatched"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Err converts a failed outcome into the error returned to clients
func (o Outcome) Err() error {
	switch o {
	case OutcomeValid:
		return nil
	case OutcomeNotFound:
		return ErrOTPNotFound
	case OutcomeMismatched:
		return ErrOTPMismatch
	default:
		return ErrOTPExpired
	}
}

// OTPStore persists one-time codes
type OTPStore interface {
	Replace(ctx context.Context, code *models.OneTimeCode) error
	GetByEmail(ctx context.Context, email string) (*models.OneTimeCode, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// OTPEngine issues and verifies 6-digit one-time codes
type OTPEngine struct {
	store OTPStore
	ttl   time.Duration
	now   func() time.Time
}

// NewOTPEngine creates an engine whose codes live for ttl
func NewOTPEngine(store OTPStore, ttl time.Duration) *OTPEngine {
	return &OTPEngine{store: store, ttl: ttl, now: time.Now}
}

// Issue generates a fresh code for owner and purpose. Any code previously
// issued to the owner's email is invalidated.
func (e *OTPEngine) Issue(ctx context.Context, owner *models.User, purpose models.OTPPurpose) (*models.OneTimeCode, error) {
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	now := e.now().UTC()
	otp := &models.OneTimeCode{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Email:     owner.Email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(e.ttl),
		CreatedAt: now,
	}
	if err := e.store.Replace(ctx, otp); err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}
	return otp, nil
}

// Verify checks code against the live code for email. Expired codes are
// deleted. A valid code is consumed before Verify returns, so it can never be
// replayed even if the caller's follow-up work fails.
func (e *OTPEngine) Verify(ctx context.Context, email, code string, purpose models.OTPPurpose) (Outcome, *models.OneTimeCode, error) {
	otp, err := e.store.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return OutcomeNotFound, nil, nil
	}
	if err != nil {
		return OutcomeNotFound, nil, fmt.Errorf("failed to load code: %w", err)
	}
	if otp.Purpose != purpose {
		return OutcomeNotFound, nil, nil
	}

	if otp.IsExpired(e.now()) {
		if _, err := e.store.Delete(ctx, otp.ID); err != nil {
			return OutcomeExpired, otp, err
		}
		return OutcomeExpired, otp, nil
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return OutcomeMismatched, otp, nil
	}

	consumed, err := e.store.Delete(ctx, otp.ID)
	if err != nil {
		return OutcomeNotFound, nil, err
	}
	if !consumed {
		// A concurrent verification consumed it first
		return OutcomeNotFound, nil, nil
	}
	return OutcomeValid, otp, nil
}

var codeSpan = big.NewInt(900000)

// generateCode draws uniformly from 100000-999999
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
