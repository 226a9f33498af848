package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"
	"github.com/findosh/spendwatch/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher with the given cost, or the bcrypt
// default when cost is out of range
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// NormalizeEmail lowercases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return apperr.Validation("name must contain only letters and single spaces")
	}
	return nil
}

func validatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return apperr.Validation("phone number must be exactly 10 digits")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || !govalidator.IsEmail(email) {
		return apperr.Validation("invalid email address")
	}
	return nil
}

// validatePassword requires at least 8 characters with an upper-case
// letter, a lower-case letter, a digit and a symbol
func validatePassword(password string) error {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if len(password) < 8 || !upper || !lower || !digit || !special {
		return apperr.Validation("password must be at least 8 characters and include upper and lower case letters, a number and a special character")
	}
	return nil
}
