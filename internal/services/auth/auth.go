// Package auth provides OTP-gated registration and login, bearer token
// issuance and account credential management
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/mailer"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrNoCredential       = apperr.New(apperr.KindUnauthorized, "no credential presented")
	ErrInvalidCredential  = apperr.New(apperr.KindUnauthorized, "credential invalid or expired")
	ErrIdentityGone       = apperr.New(apperr.KindUnauthorized, "account no longer exists")
	ErrAccountDeactivated = apperr.New(apperr.KindForbidden, "account deactivated")

	ErrInvalidCredentials = apperr.Validation("invalid email or password")
	ErrEmailExists        = apperr.New(apperr.KindConflict, "email already registered")
	ErrAlreadyVerified    = apperr.New(apperr.KindConflict, "account already verified")
	ErrNotVerified        = apperr.New(apperr.KindForbidden, "account not verified")
	ErrNotAdmin           = apperr.New(apperr.KindForbidden, "admin access required")
	ErrUserNotFound       = apperr.NotFound("user not found")

	ErrOTPNotFound = apperr.NotFound("verification code not found")
	ErrOTPMismatch = apperr.Validation("invalid verification code")
	ErrOTPExpired  = apperr.New(apperr.KindExpired, "verification code expired")
)

// UserStore persists identities
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Service handles authentication operations
type Service struct {
	users  UserStore
	otps   *OTPEngine
	tokens *TokenLedger
	hasher PasswordHasher
	mailer mailer.Mailer
	logger *slog.Logger
}

// NewService creates a new auth service
func NewService(users UserStore, otps *OTPEngine, tokens *TokenLedger, hasher PasswordHasher, m mailer.Mailer, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		otps:   otps,
		tokens: tokens,
		hasher: hasher,
		mailer: m,
		logger: logging.Component(logger, logging.ComponentAuth),
	}
}

// RegisterInput contains registration data
type RegisterInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified account, or refreshes the details of an
// account that never finished verification, and mails a registration code
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = NormalizeEmail(in.Email)

	if err := validateName(in.Name); err != nil {
		return err
	}
	if err := validatePhone(in.Phone); err != nil {
		return err
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		user = models.NewUser(in.Name, in.Email, in.Phone, hash, models.RoleUser)
		if err := s.users.Create(ctx, user); err != nil {
			return apperr.Internal("failed to create user", err)
		}
	case err != nil:
		return apperr.Internal("failed to find user", err)
	case user.IsVerified:
		return ErrEmailExists
	default:
		user.Name = in.Name
		user.Phone = in.Phone
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return apperr.Internal("failed to update user", err)
		}
	}

	return s.sendCode(ctx, user, models.PurposeRegistration)
}

// Result is returned by every flow that ends in a bearer token
type Result struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	Role      models.Role  `json:"role"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// VerifyRegistration consumes a registration code, marks the account verified
// and logs it in
func (s *Service) VerifyRegistration(ctx context.Context, email, code string) (*Result, error) {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	if err := s.verifyCode(ctx, user.Email, code, models.PurposeRegistration); err != nil {
		return nil, err
	}

	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Internal("failed to mark user verified", err)
	}

	s.logger.InfoContext(ctx, "user verified", logging.FieldUserID, user.ID)
	return s.issue(ctx, user)
}

// LoginInput contains login credentials. When Role is set the account must
// hold it.
type LoginInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"-"`
}

// Login checks credentials and mails a login code
func (s *Service) Login(ctx context.Context, in LoginInput) error {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return apperr.Validation("email and password are required")
	}

	user, err := s.findUser(ctx, in.Email)
	if err != nil {
		return err
	}
	if in.Role != "" && user.Role != in.Role {
		return ErrNotAdmin
	}
	if !user.IsActive() {
		return ErrAccountDeactivated
	}
	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		return ErrInvalidCredentials
	}
	if !user.IsVerified {
		return ErrNotVerified
	}

	return s.sendCode(ctx, user, models.PurposeLogin)
}

// VerifyLogin consumes a login code and issues a bearer token. An empty role
// accepts any account.
func (s *Service) VerifyLogin(ctx context.Context, email, code string, role models.Role) (*Result, error) {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if role != "" && user.Role != role {
		return nil, ErrNotAdmin
	}
	if !user.IsActive() {
		return nil, ErrAccountDeactivated
	}

	if err := s.verifyCode(ctx, user.Email, code, models.PurposeLogin); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", logging.FieldUserID, user.ID, "role", user.Role)
	return s.issue(ctx, user)
}

// Authenticate resolves a bearer token to its live identity
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return s.tokens.Validate(ctx, token)
}

// Logout revokes a bearer token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// ProfileInput carries optional profile changes
type ProfileInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// UpdateProfile changes name, phone or email. A new email must not belong to
// another account.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		user.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
		user.Phone = phone
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			} else if !errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.Internal("failed to check email", err)
			}
			user.Email = email
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Internal("failed to update profile", err)
	}
	return user, nil
}

// ChangePassword updates a user's password and revokes every token they hold
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !s.hasher.Compare(user.PasswordHash, current) {
		return apperr.Validation("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	return s.setPassword(ctx, user, next)
}

// RequestPasswordReset mails a reset code
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}
	if !user.IsActive() {
		return ErrAccountDeactivated
	}
	return s.sendCode(ctx, user, models.PurposeReset)
}

// ResetPassword consumes a reset code and sets a new password
func (s *Service) ResetPassword(ctx context.Context, email, code, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}
	if !user.IsActive() {
		return ErrAccountDeactivated
	}
	if err := s.verifyCode(ctx, user.Email, code, models.PurposeReset); err != nil {
		return err
	}
	return s.setPassword(ctx, user, password)
}

// CreateAdmin creates a verified administrator account
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("failed to check email", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	admin := models.NewUser(name, email, "", hash, models.RoleAdmin)
	admin.IsVerified = true
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, apperr.Internal("failed to create admin", err)
	}
	return admin, nil
}

func (s *Service) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return apperr.Internal("failed to revoke sessions", err)
	}
	s.logger.InfoContext(ctx, "password changed", logging.FieldUserID, user.ID)
	return nil
}

func (s *Service) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}
	return user, nil
}

func (s *Service) verifyCode(ctx context.Context, email, code string, purpose models.OTPPurpose) error {
	outcome, _, err := s.otps.Verify(ctx, email, strings.TrimSpace(code), purpose)
	if err != nil {
		return apperr.Internal("failed to verify code", err)
	}
	if outcome != OutcomeValid {
		s.logger.InfoContext(ctx, "code rejected", "purpose", purpose, "outcome", outcome)
	}
	return outcome.Err()
}

func (s *Service) sendCode(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	otp, err := s.otps.Issue(ctx, user, purpose)
	if err != nil {
		return apperr.Internal("failed to issue verification code", err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: codeSubjects[purpose],
		Body: fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires at %s.\n",
			user.Name, otp.Code, otp.ExpiresAt.Format(time.RFC1123)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperr.Internal("failed to send verification code", err)
	}
	return nil
}

var codeSubjects = map[models.OTPPurpose]string{
	models.PurposeRegistration: "Verify your account",
	models.PurposeLogin:        "Your login code",
	models.PurposeReset:        "Reset your password",
}

func (s *Service) issue(ctx context.Context, user *models.User) (*Result, error) {
	tok, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	return &Result{User: user, Token: tok.Token, Role: user.Role, ExpiresAt: tok.ExpiresAt}, nil
}
