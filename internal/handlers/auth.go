package handlers

import (
	"net/http"

	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/respond"
	"github.com/findosh/spendwatch/internal/services/auth"
	"github.com/go-chi/chi/v5"
)

type emailRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// Register creates an unverified account and mails a registration code
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authService.Register(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, "verification code sent to your email", nil)
}

// VerifyRegistration consumes the registration code and logs the user in
func (h *Handler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.authService.VerifyRegistration(r.Context(), in.Email, chi.URLParam(r, "otp"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "account verified", result)
}

// Login checks a user's credentials and mails a login code
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.RoleUser)
}

// AdminLogin checks an admin's credentials and mails a login code
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.RoleAdmin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, role models.Role) {
	var in auth.LoginInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.Role = role
	if err := h.authService.Login(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "verification code sent to your email", nil)
}

// VerifyLogin consumes a user's login code and issues a token
func (h *Handler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	h.verifyLogin(w, r, models.RoleUser)
}

// AdminVerifyLogin consumes an admin's login code and issues a token
func (h *Handler) AdminVerifyLogin(w http.ResponseWriter, r *http.Request) {
	h.verifyLogin(w, r, models.RoleAdmin)
}

func (h *Handler) verifyLogin(w http.ResponseWriter, r *http.Request, role models.Role) {
	var in emailRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.authService.VerifyLogin(r.Context(), in.Email, chi.URLParam(r, "otp"), role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "login successful", result)
}

// Logout revokes the presented token. An expired but authentic token can
// still be revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "logged out successfully", nil)
}

// Profile returns the current account
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, http.StatusOK, "", middleware.GetUser(r))
}

// UpdateProfile changes name, phone or email of the current account
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in auth.ProfileInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.authService.UpdateProfile(r.Context(), middleware.GetUser(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "profile updated successfully", user)
}

// ChangePassword replaces the password and signs out every session
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in changePasswordRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authService.ChangePassword(r.Context(), middleware.GetUser(r), in.OldPassword, in.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "password updated successfully", nil)
}

// RequestPasswordReset mails a reset code
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authService.RequestPasswordReset(r.Context(), in.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "verification code sent to your email", nil)
}

// ResetPassword consumes a reset code and sets the new password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authService.ResetPassword(r.Context(), in.Email, chi.URLParam(r, "otp"), in.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "password reset successful", nil)
}
