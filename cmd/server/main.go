package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/tenantportal/internal/handler"
	"github.com/yourorg/tenantportal/internal/infrastructure/logger"
	"github.com/yourorg/tenantportal/internal/infrastructure/redis"
	"github.com/yourorg/tenantportal/internal/observability/metrics"
	"github.com/yourorg/tenantportal/internal/observability/tracing"
	"github.com/yourorg/tenantportal/internal/repository"
	"github.com/yourorg/tenantportal/internal/security/audit"
	"github.com/yourorg/tenantportal/internal/security/auth"
	"github.com/yourorg/tenantportal/internal/security/middleware"
	"github.com/yourorg/tenantportal/internal/security/ratelimit"
	"github.com/yourorg/tenantportal/internal/service"
	"github.com/yourorg/tenantportal/pkg/config"
	"github.com/yourorg/tenantportal/pkg/database"
)

func main() {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting TenantPortal server", slog.String("environment", cfg.Environment))

	// 3. Initialize tracing (no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "tenantportal", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres and ensure the schema exists
	dbPool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Initialize Redis (optional; the forgot-password limiter falls
	// back to in-memory windows when absent)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, using in-memory rate limiting", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 6. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(dbPool.GetDB(), log)
	maintenanceRepo := repository.NewPostgresMaintenanceRepository(dbPool.GetDB(), log)
	announcementRepo := repository.NewPostgresAnnouncementRepository(dbPool.GetDB(), log)

	// 7. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "tenantportal", time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	authService := service.NewAuthService(userRepo, tokenManager, time.Duration(cfg.ResetTTLMinutes)*time.Minute, log)
	maintenanceService := service.NewMaintenanceService(maintenanceRepo, log)
	announcementService := service.NewAnnouncementService(announcementRepo, log)

	// 8. Initialize security components
	rateLimiter := ratelimit.NewLimiter(100, time.Minute) // 100 requests per minute per user
	forgotWindow := ratelimit.NewIPWindow(
		redisClient,
		rateLimiter,
		cfg.ForgotPasswordMaxAttempts,
		time.Duration(cfg.ForgotPasswordWindowMinutes)*time.Minute,
		log,
	)
	auditLogger := audit.NewLogger(log)
	chain := middleware.NewChain(tokenManager, userRepo, rateLimiter, auditLogger, log)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, auditLogger, cfg.ResetTokenInBody, log)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService, log)
	adminMaintenanceHandler := handler.NewAdminMaintenanceHandler(maintenanceService, log)
	announcementHandler := handler.NewAnnouncementHandler(announcementService, log)
	adminAnnouncementHandler := handler.NewAdminAnnouncementHandler(announcementService, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", http.HandlerFunc(authHandler.Register))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(authHandler.Login))
	mux.Handle("POST /api/auth/forgot-password",
		middleware.ForgotPasswordLimit(forgotWindow, log)(http.HandlerFunc(authHandler.ForgotPassword)))
	mux.Handle("POST /api/auth/reset-password/{token}", http.HandlerFunc(authHandler.ResetPassword))
	mux.Handle("GET /api/auth/me", chain.Authenticated(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/change-password", chain.Authenticated(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("PATCH /api/auth/account", chain.Authenticated(http.HandlerFunc(authHandler.UpdateAccount)))
	mux.Handle("PATCH /api/auth/admin/users/{id}/deactivate", chain.Admin(http.HandlerFunc(authHandler.DeactivateTenant)))

	mux.Handle("POST /api/maintenance", chain.Authenticated(http.HandlerFunc(maintenanceHandler.Create)))
	mux.Handle("GET /api/maintenance", chain.Authenticated(http.HandlerFunc(maintenanceHandler.List)))
	mux.Handle("PATCH /api/maintenance/{id}/images", chain.Authenticated(http.HandlerFunc(maintenanceHandler.AddImages)))

	mux.Handle("GET /api/admin/maintenance/all", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.ListAll)))
	mux.Handle("GET /api/admin/maintenance/open", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.ListOpen)))
	mux.Handle("GET /api/admin/maintenance/closed", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.ListClosed)))
	mux.Handle("GET /api/admin/maintenance/{id}", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.Get)))
	mux.Handle("PUT /api/admin/maintenance/{id}/status", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.UpdateStatus)))
	mux.Handle("PUT /api/admin/maintenance/{id}/urgency", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.UpdateUrgency)))
	mux.Handle("PUT /api/admin/maintenance/{id}/category", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.UpdateCategory)))
	mux.Handle("PUT /api/admin/maintenance/{id}/close", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.Close)))
	mux.Handle("POST /api/admin/maintenance/{id}/notes", chain.Admin(http.HandlerFunc(adminMaintenanceHandler.AddNote)))

	mux.Handle("GET /api/announcements", chain.Authenticated(http.HandlerFunc(announcementHandler.List)))
	mux.Handle("PATCH /api/announcements/read-all", chain.Authenticated(http.HandlerFunc(announcementHandler.MarkAllRead)))
	mux.Handle("PATCH /api/announcements/{id}/read", chain.Authenticated(http.HandlerFunc(announcementHandler.MarkRead)))

	mux.Handle("POST /api/admin/announcements", chain.Admin(http.HandlerFunc(adminAnnouncementHandler.Create)))
	mux.Handle("GET /api/admin/announcements", chain.Admin(http.HandlerFunc(adminAnnouncementHandler.List)))
	mux.Handle("PUT /api/admin/announcements/{id}", chain.Admin(http.HandlerFunc(adminAnnouncementHandler.Update)))
	mux.Handle("DELETE /api/admin/announcements/{id}", chain.Admin(http.HandlerFunc(adminAnnouncementHandler.Delete)))

	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints (no auth required)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := dbPool.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database not ready"))
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("redis not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	handlerWithCORS := withCORS(cfg.CORSAllowedOrigins, mux)

	// Chain middleware: request ID -> tracing -> metrics -> CORS -> routes
	rootHandler := withRequestID(
		otelhttp.NewHandler(
			metrics.HTTPMetricsMiddleware(handlerWithCORS),
			"tenantportal.http",
		),
		log,
	)

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", 100),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

// withCORS honors the configured origins. Requests from other origins
// get no Access-Control-Allow-Origin header at all.
func withCORS(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
