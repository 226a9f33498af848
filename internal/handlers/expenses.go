package handlers

import (
	"net/http"
	"time"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/findosh/spendwatch/internal/services/expenses"
	"github.com/shopspring/decimal"
)

type expenseRequest struct {
	Title    *string          `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category"`
	Date     *string          `json:"date"`
	Note     *string          `json:"note"`
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := models.ParseDate(*s)
	if err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// CreateExpense records an expense
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.expenseService.Create(r.Context(), middleware.GetUser(r), expenses.Input{
		Title:    deref(req.Title),
		Amount:   deref(req.Amount),
		Category: deref(req.Category),
		Date:     deref(date),
		Note:     deref(req.Note),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, "expense added", e)
}

// ListExpenses lists expenses filtered by ?filter, ?range or ?start&end
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.expenseService.List(r.Context(), middleware.GetUser(r), expenses.ListQuery{
		Filter: q.Get("filter"),
		Range:  q.Get("range"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", list)
}

// GetExpense returns one expense
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", expenses.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.expenseService.Get(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", e)
}

// UpdateExpense changes the supplied fields of an expense
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", expenses.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.expenseService.Update(r.Context(), middleware.GetUser(r), id, expenses.UpdateInput{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     date,
		Note:     req.Note,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "expense updated", e)
}

// DeleteExpense soft-deletes an expense
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", expenses.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.expenseService.Delete(r.Context(), middleware.GetUser(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "expense deleted", nil)
}

// Categories lists the predefined categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.fail(w, r, apperr.Internal("failed to fetch categories", err))
		return
	}
	respond.OK(w, http.StatusOK, "", categories)
}
