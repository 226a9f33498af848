package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/findosh/spendwatch/internal/services/admin"
)

// AdminUsers lists every non-admin account
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", users)
}

// AdminUserExpenses lists a user's full expense history
func (h *Handler) AdminUserExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", admin.ErrUserNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.adminService.UserExpenses(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", list)
}

// AdminDeactivateUser blocks a user from signing in
func (h *Handler) AdminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", admin.ErrUserNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.adminService.Deactivate(r.Context(), middleware.GetUser(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "user deactivated", nil)
}

// AdminActivateUser restores a deactivated user
func (h *Handler) AdminActivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", admin.ErrUserNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.adminService.Activate(r.Context(), middleware.GetUser(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "user activated", nil)
}

// AdminStats reports platform-wide counts
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", stats)
}

// AdminExport downloads every active expense as a JSON attachment
func (h *Handler) AdminExport(w http.ResponseWriter, r *http.Request) {
	list, err := h.adminService.ExportExpenses(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		h.fail(w, r, apperr.Internal("failed to export expenses", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=expenses.json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
