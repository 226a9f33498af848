package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionStore persists the token ledger
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// Claims carried by every bearer token
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// IssuedToken is a freshly signed bearer token
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenLedger signs bearer tokens and records them; a token is honoured only
// while its ledger entry exists
type TokenLedger struct {
	sessions SessionStore
	users    UserStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenLedger creates a ledger signing with secret
func NewTokenLedger(sessions SessionStore, users UserStore, secret string, ttl time.Duration) *TokenLedger {
	return &TokenLedger{
		sessions: sessions,
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue signs a token for user and records it
func (l *TokenLedger) Issue(ctx context.Context, user *models.User) (*IssuedToken, error) {
	now := l.now().UTC()
	expires := now.Add(l.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: user.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expires,
		CreatedAt: now,
	}
	if err := l.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	return &IssuedToken{Token: token, ExpiresAt: expires}, nil
}

// Validate checks signature and expiry, then the ledger, then re-resolves the
// identity so renames and deactivations take effect immediately
func (l *TokenLedger) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNoCredential
	}

	claims, err := l.parse(token, true)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	if _, err := l.sessions.GetByToken(ctx, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	user, err := l.users.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrIdentityGone
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrAccountDeactivated
	}

	return user, nil
}

// Revoke removes a token from the ledger. The signature must verify but an
// expired token may still be revoked.
func (l *TokenLedger) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoCredential
	}
	if _, err := l.parse(token, false); err != nil {
		return ErrInvalidCredential
	}
	if err := l.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAll removes every token issued to a user
func (l *TokenLedger) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := l.sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

func (l *TokenLedger) parse(token string, checkExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(l.now),
	}
	if checkExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
