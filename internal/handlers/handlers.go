// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/findosh/spendwatch/internal/services/admin"
	"github.com/findosh/spendwatch/internal/services/analytics"
	"github.com/findosh/spendwatch/internal/services/auth"
	"github.com/findosh/spendwatch/internal/services/budgets"
	"github.com/findosh/spendwatch/internal/services/expenses"
	"github.com/findosh/spendwatch/internal/services/goals"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// CategoryLister lists the predefined categories
type CategoryLister interface {
	List(ctx context.Context) ([]models.Category, error)
}

// Services bundles the dependencies of the handlers
type Services struct {
	Auth       *auth.Service
	Expenses   *expenses.Service
	Budgets    *budgets.Service
	Goals      *goals.Service
	Analytics  *analytics.Service
	Admin      *admin.Service
	Categories CategoryLister
}

// Handler contains all HTTP handlers and dependencies
type Handler struct {
	authService      *auth.Service
	expenseService   *expenses.Service
	budgetService    *budgets.Service
	goalService      *goals.Service
	analyticsService *analytics.Service
	adminService     *admin.Service
	categories       CategoryLister
	logger           *slog.Logger
}

// New creates a new handler with all dependencies
func New(svc Services, logger *slog.Logger) *Handler {
	return &Handler{
		authService:      svc.Auth,
		expenseService:   svc.Expenses,
		budgetService:    svc.Budgets,
		goalService:      svc.Goals,
		analyticsService: svc.Analytics,
		adminService:     svc.Admin,
		categories:       svc.Categories,
		logger:           logging.Component(logger, logging.ComponentHTTP),
	}
}

// fail writes err as a failed envelope
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, logging.FromContext(r.Context(), h.logger), err)
}

// decode reads a JSON body into dst
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

// pathID parses a uuid URL parameter. Malformed ids cannot name an owned
// entity, so they are reported as not found.
func pathID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
