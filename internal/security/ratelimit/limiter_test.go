package ratelimit

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Fatalf("request over the limit should be denied")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	if !l.Allow("user-1") {
		t.Fatalf("first request for user-1 should be allowed")
	}
	if !l.Allow("user-2") {
		t.Fatalf("user-2 should not be affected by user-1's usage")
	}
	if l.Allow("user-1") {
		t.Fatalf("user-1 should be over the limit")
	}
}

func TestAllowEmptyKey(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	// Unkeyed callers bypass the limiter
	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("empty key should always be allowed")
		}
	}
}

func TestWindowSlides(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("user-1") {
		t.Fatalf("first request should be allowed")
	}
	if l.Allow("user-1") {
		t.Fatalf("second request should be denied inside the window")
	}

	time.Sleep(60 * time.Millisecond)

	if !l.Allow("user-1") {
		t.Fatalf("request after the window slides should be allowed")
	}
}

func TestAllowStrictSeparateKeySpace(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()

	// Exhaust the strict budget
	for i := 0; i < 2; i++ {
		if !l.AllowStrict("1.2.3.4", 2, time.Minute) {
			t.Fatalf("strict request %d should be allowed", i+1)
		}
	}
	if l.AllowStrict("1.2.3.4", 2, time.Minute) {
		t.Fatalf("strict request over the limit should be denied")
	}

	// The general budget for the same identifier is untouched
	if !l.Allow("1.2.3.4") {
		t.Fatalf("general limit should be independent of strict usage")
	}
}

func TestStopEndsSweep(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLimiter(5, time.Minute)
	if !l.Allow("tenant-1") {
		t.Fatalf("first request should be allowed")
	}

	l.Stop()
	l.Stop() // repeat must be a no-op
}
