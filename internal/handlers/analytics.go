package handlers

import (
	"net/http"

	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/respond"
)

// Piechart returns the caller's spend per category over the last 30 days
func (h *Handler) Piechart(w http.ResponseWriter, r *http.Request) {
	totals, err := h.analyticsService.Piechart(r.Context(), middleware.GetUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", totals)
}
