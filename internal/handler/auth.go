package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tenantportal/internal/observability/metrics"
	"github.com/yourorg/tenantportal/internal/security/audit"
	"github.com/yourorg/tenantportal/internal/security/middleware"
	"github.com/yourorg/tenantportal/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	auditLog    *audit.Logger
	logger      *slog.Logger

	// Placeholder for the missing email delivery integration: when set,
	// forgot-password returns the plaintext token in the response body.
	resetTokenInBody bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, auditLog *audit.Logger, resetTokenInBody bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService:      authService,
		auditLog:         auditLog,
		logger:           logger,
		resetTokenInBody: resetTokenInBody,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.authService.Register(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObserveRegistration()
	h.logger.Info("user registered",
		slog.String("user_id", result.ID),
		slog.String("email", result.Email),
	)

	writeJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		metrics.ObserveLogin("failure")
		h.auditLog.LogLogin(r.Context(), "", "failure", req.Email)
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObserveLogin("success")
	h.auditLog.LogLogin(r.Context(), result.ID, "success", "")
	writeJSON(w, http.StatusOK, result)
}

// ForgotPasswordRequest represents a forgot-password request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is
// the same generic acknowledgement whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := h.authService.ForgotPassword(req.Email)
	if err != nil {
		metrics.ObservePasswordReset("forgot", "rejected")
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObservePasswordReset("forgot", "ok")

	body := map[string]string{
		"message": "if the account exists, password reset instructions have been sent",
	}
	if token != "" && h.resetTokenInBody {
		body["resetToken"] = token
	}

	writeJSON(w, http.StatusOK, body)
}

// ResetPasswordRequest represents a reset-password request
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword handles POST /api/auth/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.authService.ResetPassword(r.PathValue("token"), req.Password)
	if err != nil {
		metrics.ObservePasswordReset("reset", "failure")
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObservePasswordReset("reset", "success")
	h.auditLog.LogPasswordReset(r.Context(), result.ID, "success")
	writeJSON(w, http.StatusOK, result)
}

// ChangePasswordRequest represents a change-password request
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}

	result, err := h.authService.ChangePassword(user.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("user changed password", slog.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, result)
}

// UpdateAccountRequest represents a self-service account update
type UpdateAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateAccount handles PATCH /api/auth/account
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.authService.UpdateAccount(user.ID, req.Name, req.Email)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// MeResponse is the authenticated profile view
type MeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	})
}

// DeactivateTenant handles PATCH /api/auth/admin/users/{id}/deactivate
func (h *AuthHandler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	if admin == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	targetID := r.PathValue("id")
	target, err := h.authService.DeactivateTenant(targetID)
	if err != nil {
		h.auditLog.LogDeactivation(r.Context(), admin.ID, targetID, "failure")
		writeDomainError(w, h.logger, err)
		return
	}

	h.auditLog.LogDeactivation(r.Context(), admin.ID, target.ID, "success")
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "account deactivated",
		"user": MeResponse{
			ID:    target.ID,
			Name:  target.Name,
			Email: target.Email,
			Role:  string(target.Role),
		},
	})
}
