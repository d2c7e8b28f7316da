package ratelimit

import (
	"sync"
	"time"
)

const (
	sweepInterval = 5 * time.Minute
	staleAfter    = 15 * time.Minute
)

// Limiter is an in-memory sliding-window rate limiter keyed by caller
// identity (user ID or IP).
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	maxReqs int
	span    time.Duration
	sweeper *time.Ticker

	done     chan struct{}
	stopOnce sync.Once
}

// window holds the timestamps of recent requests, oldest first
type window struct {
	hits     []time.Time
	lastSeen time.Time
}

func NewLimiter(maxRequests int, span time.Duration) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		maxReqs: maxRequests,
		span:    span,
		sweeper: time.NewTicker(sweepInterval),
		done:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow records a request under the default budget. Empty keys are
// never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	return l.take(key, l.maxReqs, l.span)
}

// AllowStrict applies a tighter budget for sensitive endpoints, tracked
// under a separate key space so it never interferes with Allow.
func (l *Limiter) AllowStrict(identifier string, maxReqs int, span time.Duration) bool {
	return l.take("strict:"+identifier, maxReqs, span)
}

func (l *Limiter) take(key string, maxReqs int, span time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	w.lastSeen = now

	// hits are appended in order, so everything before the first
	// in-window timestamp can be dropped in one slice
	cutoff := now.Add(-span)
	keep := 0
	for keep < len(w.hits) && !w.hits[keep].After(cutoff) {
		keep++
	}
	w.hits = w.hits[keep:]

	if len(w.hits) >= maxReqs {
		return false
	}

	w.hits = append(w.hits, now)
	return true
}

func (l *Limiter) sweep() {
	for {
		select {
		case <-l.done:
			return
		case <-l.sweeper.C:
			l.mu.Lock()
			threshold := time.Now().Add(-staleAfter)
			for key, w := range l.windows {
				if w.lastSeen.Before(threshold) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		l.sweeper.Stop()
		close(l.done)
	})
}
