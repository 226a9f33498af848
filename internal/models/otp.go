package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPPurpose tags a one-time code with the flow it was issued for
type OTPPurpose string

const (
	PurposeRegistration OTPPurpose = "registration"
	PurposeLogin        OTPPurpose = "login"
	PurposeReset        OTPPurpose = "reset"
)

// Valid reports whether p is a known purpose
func (p OTPPurpose) Valid() bool {
	switch p {
	case PurposeRegistration, PurposeLogin, PurposeReset:
		return true
	}
	return false
}

// OneTimeCode is a short-lived 6-digit code bound to an email and purpose.
// At most one live code exists per email.
type OneTimeCode struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Code      string     `json:"-"`
	Purpose   OTPPurpose `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired reports whether the code is past its expiry at now
func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
