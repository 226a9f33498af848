package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/respond"
)

type contextKey string

const (
	UserContextKey  contextKey = "user"
	TokenContextKey contextKey = "token"
)

var errAdminOnly = apperr.New(apperr.KindForbidden, "admin access required")

// Authenticator resolves a bearer token to the current identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth middleware for protected routes
type Auth struct {
	authenticator Authenticator
	logger        *slog.Logger
}

// NewAuth creates a new auth middleware
func NewAuth(authenticator Authenticator, logger *slog.Logger) *Auth {
	return &Auth{authenticator: authenticator, logger: logging.Component(logger, logging.ComponentAuth)}
}

// RequireAuth ensures the request carries a live token of an active account
func (m *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		user, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			respond.Error(w, r, logging.FromContext(r.Context(), m.logger), err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, TokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin lets only admins through. It must run after RequireAuth.
func (m *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil || !user.IsAdmin() {
			respond.Error(w, r, m.logger, errAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the bare token header older clients send
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get("token"))
}

// GetUser retrieves the user from the request context
func GetUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
