package handlers

import (
	"net/http"

	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/respond"
)

// dashboard is the landing summary of a user's finances
type dashboard struct {
	User       *models.User           `json:"user"`
	Budgets    []*models.BudgetUsage  `json:"budgets"`
	Overspent  []*models.BudgetUsage  `json:"overspent"`
	Goals      []*models.Goal         `json:"goals"`
	Categories []models.CategoryTotal `json:"categories"`
}

// Dashboard gathers budget usage, goals and the category breakdown in one call
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	ctx := r.Context()

	budgets, err := h.budgetService.List(ctx, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	goals, err := h.goalService.List(ctx, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	totals, err := h.analyticsService.Piechart(ctx, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	overspent := make([]*models.BudgetUsage, 0)
	for _, b := range budgets {
		if b.Notified {
			overspent = append(overspent, b)
		}
	}

	respond.OK(w, http.StatusOK, "", dashboard{
		User:       user,
		Budgets:    budgets,
		Overspent:  overspent,
		Goals:      goals,
		Categories: totals,
	})
}
