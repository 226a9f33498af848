package handlers

import (
	"net/http"

	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/findosh/spendwatch/internal/services/goals"
	"github.com/shopspring/decimal"
)

type goalRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	SavedAmount  *decimal.Decimal `json:"saved_amount"`
	DesiredDate  *string          `json:"desired_date"`
	Note         *string          `json:"note"`
}

type savingRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateGoal stores a savings goal
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	desired, err := parseOptionalDate(req.DesiredDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.goalService.Create(r.Context(), middleware.GetUser(r), goals.Input{
		Name:         deref(req.Name),
		TargetAmount: deref(req.TargetAmount),
		SavedAmount:  deref(req.SavedAmount),
		DesiredDate:  deref(desired),
		Note:         deref(req.Note),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, "goal created", g)
}

// ListGoals lists active goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := h.goalService.List(r.Context(), middleware.GetUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", list)
}

// GetGoal returns one goal
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", goals.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.goalService.Get(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", g)
}

// UpdateGoal changes the supplied fields of a goal
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", goals.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req goalRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	desired, err := parseOptionalDate(req.DesiredDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.goalService.Update(r.Context(), middleware.GetUser(r), id, goals.UpdateInput{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		DesiredDate:  desired,
		Note:         req.Note,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "goal updated", g)
}

// AddSaving adds to a goal's saved amount
func (h *Handler) AddSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", goals.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req savingRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.goalService.AddSaving(r.Context(), middleware.GetUser(r), id, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "amount added", g)
}

// MarkGoalReached flags a goal as reached
func (h *Handler) MarkGoalReached(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", goals.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.goalService.MarkReached(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "goal marked as reached", g)
}

// GoalProgress reports how far a goal is from its target
func (h *Handler) GoalProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", goals.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.goalService.Progress(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", p)
}

// DeleteGoal soft-deletes a goal
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", goals.ErrNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.goalService.Delete(r.Context(), middleware.GetUser(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "goal deleted", nil)
}
