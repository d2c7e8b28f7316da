package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/tenantportal/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Message: msg})
}

// writeDomainError translates a service error to its status code and a
// user-safe message. Unrecognized errors are logged in full and reported
// as a generic server error so storage internals never reach the caller.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not authorized")
	case errors.Is(err, domain.ErrNotTenant):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrRequestClosed):
		writeError(w, http.StatusBadRequest, "request is closed")
	case errors.Is(err, domain.ErrEmailInUse):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrAccountDeactivated):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrResetCooldown):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "server error")
	}
}
