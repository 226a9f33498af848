package handlers

import (
	"net/http"

	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/findosh/spendwatch/internal/services/budgets"
	"github.com/shopspring/decimal"
)

type budgetRequest struct {
	Name       *string          `json:"name"`
	Period     *models.Period   `json:"period"`
	Amount     *decimal.Decimal `json:"amount"`
	Categories []string         `json:"categories"`
}

// CreateBudget stores a budget
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.budgetService.Create(r.Context(), middleware.GetUser(r), budgets.Input{
		Name:       deref(req.Name),
		Period:     deref(req.Period),
		Amount:     deref(req.Amount),
		Categories: req.Categories,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, "budget created", b)
}

// ListBudgets lists budgets with their current usage
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	list, err := h.budgetService.List(r.Context(), middleware.GetUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", list)
}

// GetBudget returns one budget with its usage
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", budgets.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.budgetService.Get(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", u)
}

// UpdateBudget changes the supplied fields of a budget
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", budgets.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req budgetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.budgetService.Update(r.Context(), middleware.GetUser(r), id, budgets.UpdateInput{
		Name:       req.Name,
		Period:     req.Period,
		Amount:     req.Amount,
		Categories: req.Categories,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "budget updated", b)
}

// DeleteBudget soft-deletes a budget
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", budgets.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.budgetService.Delete(r.Context(), middleware.GetUser(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "budget deleted successfully", nil)
}
