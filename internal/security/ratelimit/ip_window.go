package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/tenantportal/internal/infrastructure/redis"
)

// IPWindow rate-limits by caller IP over a fixed window. It counts in
// Redis when a client is available so the limit holds across replicas,
// and falls back to the in-memory limiter otherwise.
type IPWindow struct {
	redis    *redis.Client
	fallback *Limiter
	maxReqs  int
	window   time.Duration
	logger   *slog.Logger
}

// NewIPWindow creates an IP rate limit window. redisClient may be nil.
func NewIPWindow(redisClient *redis.Client, fallback *Limiter, maxReqs int, window time.Duration, logger *slog.Logger) *IPWindow {
	if logger == nil {
		logger = slog.Default()
	}
	return &IPWindow{
		redis:    redisClient,
		fallback: fallback,
		maxReqs:  maxReqs,
		window:   window,
		logger:   logger,
	}
}

// Allow reports whether the caller IP is still within its window
func (w *IPWindow) Allow(ctx context.Context, ip string) bool {
	if ip == "" {
		return true
	}

	if w.redis == nil {
		return w.fallback.AllowStrict("ip:"+ip, w.maxReqs, w.window)
	}

	key := fmt.Sprintf("ratelimit:forgot:%s", ip)
	count, err := w.redis.CountInWindow(ctx, key, w.window)
	if err != nil {
		w.logger.Warn("redis rate limit unavailable, using in-memory window",
			slog.String("error", err.Error()),
		)
		return w.fallback.AllowStrict("ip:"+ip, w.maxReqs, w.window)
	}

	return count <= int64(w.maxReqs)
}
