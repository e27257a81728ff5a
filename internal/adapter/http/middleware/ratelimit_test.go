package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serveFrom(t *testing.T, rl *RateLimiter, addr string) int {
	t.Helper()

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec.Code
}

func TestRateLimiterThrottlesPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	if code := serveFrom(t, rl, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := serveFrom(t, rl, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("expected second request within burst to pass, got %d", code)
	}
	if code := serveFrom(t, rl, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be throttled, got %d", code)
	}

	// A different client has its own budget.
	if code := serveFrom(t, rl, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", code)
	}
}

func TestRateLimiterCleanupEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	serveFrom(t, rl, "10.0.0.1:1234")
	serveFrom(t, rl, "10.0.0.2:1234")

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.CleanupClients(30 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("expected idle client to be evicted")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("expected active client to survive cleanup")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"

	if got := clientIP(req); got != "127.0.0.1:9999" {
		t.Errorf("expected remote addr fallback, got %q", got)
	}

	req.Header.Set("X-Real-IP", "203.0.113.7")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("expected X-Real-IP, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 203.0.113.7")
	if got := clientIP(req); got != "198.51.100.4" {
		t.Errorf("expected first forwarded entry, got %q", got)
	}
}
