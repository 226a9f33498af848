// Package models defines core domain types
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes regular users from administrators
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AccountStatus is toggled only by an admin action; accounts are never deleted
type AccountStatus string

const (
	AccountActive      AccountStatus = "active"
	AccountDeactivated AccountStatus = "deactivated"
)

// User represents a registered identity
type User struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	PasswordHash string        `json:"-"` // Never serialize to JSON
	Role         Role          `json:"role"`
	IsVerified   bool          `json:"is_verified"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewUser creates an unverified, active user with generated ID and timestamps
func NewUser(name, email, phone, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       AccountActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive reports whether the account has not been deactivated
func (u *User) IsActive() bool {
	return u.Status == AccountActive
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is a ledger entry for an issued bearer token. A token is only
// honoured while its entry exists.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
