package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/security/audit"
	"github.com/yourorg/tenantportal/internal/security/auth"
	"github.com/yourorg/tenantportal/internal/security/ratelimit"
)

type UserContextKey struct{}

// Chain bundles the route-level middleware with their dependencies
type Chain struct {
	tokens   *auth.TokenManager
	users    domain.UserRepository
	limiter  *ratelimit.Limiter
	auditLog *audit.Logger
	logger   *slog.Logger
}

func NewChain(tokens *auth.TokenManager, users domain.UserRepository, limiter *ratelimit.Limiter, auditLog *audit.Logger, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		tokens:   tokens,
		users:    users,
		limiter:  limiter,
		auditLog: auditLog,
		logger:   logger,
	}
}

// Authenticated verifies the bearer token, re-loads the subject from
// storage so deactivation takes effect on in-flight tokens, and attaches
// the user to the request context.
func (c *Chain) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "not authorized, no token")
			return
		}

		tokenString, err := auth.ExtractToken(authHeader)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "not authorized, invalid token")
			return
		}

		claims, err := c.tokens.ValidateToken(tokenString)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "not authorized, invalid token")
			return
		}

		user, err := c.users.GetByID(claims.UserID)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "user not found")
			return
		}

		if user.Role == domain.RoleTenant && !user.IsActive {
			c.auditLog.LogDenied(r.Context(), user.ID, "deactivated account")
			writeJSONError(w, http.StatusForbidden, "account deactivated")
			return
		}

		if !c.limiter.Allow(user.ID) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly gates a route to admin callers. Must run inside Authenticated.
func (c *Chain) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			writeJSONError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		switch user.Role {
		case domain.RoleAdmin:
			next.ServeHTTP(w, r)
		case domain.RoleTenant:
			c.auditLog.LogDenied(r.Context(), user.ID, "admin endpoint")
			writeJSONError(w, http.StatusForbidden, "admins only")
		default:
			c.auditLog.LogDenied(r.Context(), user.ID, "unknown role")
			writeJSONError(w, http.StatusForbidden, "admins only")
		}
	})
}

// Admin composes Authenticated and AdminOnly
func (c *Chain) Admin(next http.Handler) http.Handler {
	return c.Authenticated(c.AdminOnly(next))
}

// ForgotPasswordLimit applies the per-IP fixed window to the forgot
// password endpoint
func ForgotPasswordLimit(window *ratelimit.IPWindow, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !window.Allow(r.Context(), ip) {
				log.Warn("forgot-password rate limit exceeded", slog.String("ip", ip))
				writeJSONError(w, http.StatusTooManyRequests,
					"too many password reset attempts, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the authenticated user, or nil
func GetUserFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}

// ClientIP resolves the caller IP, preferring X-Forwarded-For
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
