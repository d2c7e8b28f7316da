package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithCORS(t *testing.T) {
	allowed := []string{"https://portal.example.com"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := withCORS(allowed, next)

	t.Run("allowed origin is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/announcements", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.com" {
			t.Fatalf("expected origin echoed, got %q", got)
		}
		if rec.Header().Get("Vary") != "Origin" {
			t.Fatal("expected Vary: Origin")
		}
	})

	t.Run("unknown origin gets no allow header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/announcements", nil)
		req.Header.Set("Origin", "https://evil.example.net")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got, ok := rec.Header()["Access-Control-Allow-Origin"]; ok {
			t.Fatalf("expected no allow-origin header, got %q", got)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request itself should still reach the mux, got %d", rec.Code)
		}
	})

	t.Run("no origin header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/announcements", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if _, ok := rec.Header()["Access-Control-Allow-Origin"]; ok {
			t.Fatal("expected no allow-origin header without an Origin")
		}
	})

	t.Run("wildcard config", func(t *testing.T) {
		wild := withCORS([]string{"*"}, next)
		req := httptest.NewRequest(http.MethodGet, "/api/announcements", nil)
		req.Header.Set("Origin", "https://anywhere.example.org")
		rec := httptest.NewRecorder()
		wild.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example.org" {
			t.Fatalf("expected origin echoed under wildcard, got %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/announcements", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for preflight, got %d", rec.Code)
		}
	})
}
