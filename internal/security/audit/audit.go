// Package audit emits structured records for security-relevant account
// actions: logins, password resets, deactivations and denied accesses.
package audit

import (
	"context"
	"log/slog"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit", slog.Group("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
	))
}

func (al *Logger) LogLogin(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, userID, "login", "account", userID, status, details)
}

func (al *Logger) LogPasswordReset(ctx context.Context, userID, status string) {
	al.LogAction(ctx, userID, "password_reset", "account", userID, status, "")
}

func (al *Logger) LogDeactivation(ctx context.Context, adminID, targetID, status string) {
	al.LogAction(ctx, adminID, "deactivate", "account", targetID, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", "denied", reason)
}
