package handlers

import (
	"log/slog"
	"net/http"

	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Routes builds the API router. Credential and one-time-code endpoints
// pass through limiter. Forwarded client addresses are honored only when
// trustProxy is set; otherwise the limiter keys on the socket address.
func (h *Handler) Routes(auth *middleware.Auth, limiter *middleware.RateLimiter, logger *slog.Logger, trustProxy bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/user/register", h.Register)
			r.Post("/user/otp-verification/{otp}", h.VerifyRegistration)
			r.Post("/user/login", h.Login)
			r.Post("/user/login/otp-verification/{otp}", h.VerifyLogin)
			r.Post("/user/request-reset-password", h.RequestPasswordReset)
			r.Post("/user/reset-password/{otp}", h.ResetPassword)
			r.Post("/admin/login", h.AdminLogin)
			r.Post("/admin/otp-verification/{otp}", h.AdminVerifyLogin)
		})
		r.Post("/logout", h.Logout)
		r.Get("/categories", h.Categories)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/user/profile", h.Profile)
			r.Put("/user/profile", h.UpdateProfile)
			r.Put("/user/change-password", h.ChangePassword)
			r.Get("/dashboard", h.Dashboard)

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", h.CreateExpense)
				r.Get("/", h.ListExpenses)
				r.Get("/{id}", h.GetExpense)
				r.Put("/{id}", h.UpdateExpense)
				r.Delete("/{id}", h.DeleteExpense)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Post("/", h.CreateBudget)
				r.Get("/", h.ListBudgets)
				r.Get("/{id}", h.GetBudget)
				r.Put("/{id}", h.UpdateBudget)
				r.Delete("/{id}", h.DeleteBudget)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Post("/", h.CreateGoal)
				r.Get("/", h.ListGoals)
				r.Get("/{id}", h.GetGoal)
				r.Put("/{id}", h.UpdateGoal)
				r.Delete("/{id}", h.DeleteGoal)
				r.Patch("/{id}/add-saving", h.AddSaving)
				r.Patch("/{id}/reached", h.MarkGoalReached)
				r.Get("/{id}/progress", h.GoalProgress)
			})

			r.Get("/analytics/piechart", h.Piechart)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/users", h.AdminUsers)
				r.Get("/users/{id}/expenses", h.AdminUserExpenses)
				r.Delete("/users/{id}", h.AdminDeactivateUser)
				r.Put("/users/{id}/activate", h.AdminActivateUser)
				r.Get("/stats", h.AdminStats)
				r.Get("/export/expenses", h.AdminExport)
			})
		})
	})

	return r
}
