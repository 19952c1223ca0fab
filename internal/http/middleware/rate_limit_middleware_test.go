package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLocalFixedWindowLimiter(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d should be within the limit", i)
		}
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("fourth request must be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", retryAfter)
	}

	// A different key gets its own window.
	if allowed, _, _ := limiter.Allow(ctx, "5.6.7.8", 3, time.Minute); !allowed {
		t.Fatal("separate keys must not share a window")
	}
}

func TestRateLimiterMiddlewareDenies(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:55000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, rec.Code)
		}
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on denial")
	}
}

func TestRateLimiterKeyFuncIsolation(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute).WithKeyFunc(func(r *http.Request) string {
		return r.Header.Get("X-Test-Key")
	})
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password", nil)
		req.Header.Set("X-Test-Key", key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("a@example.org") != http.StatusOK {
		t.Fatal("first request for key should pass")
	}
	if do("a@example.org") != http.StatusTooManyRequests {
		t.Fatal("second request for same key must be denied")
	}
	if do("b@example.org") != http.StatusOK {
		t.Fatal("another key must have its own window")
	}
}

// brokenLimiter simulates a backend outage.
type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return false, 0, fmt.Errorf("backend unavailable")
}

func TestRateLimiterFailureModes(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("fail open allows", func(t *testing.T) {
		rl := NewDistributedRateLimiter(brokenLimiter{}, 10, time.Minute, FailOpen, "api")
		rec := httptest.NewRecorder()
		rl.Middleware()(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("fail-open must allow on backend error, got %d", rec.Code)
		}
	})

	t.Run("fail closed denies", func(t *testing.T) {
		rl := NewDistributedRateLimiter(brokenLimiter{}, 10, time.Minute, FailClosed, "auth")
		rec := httptest.NewRecorder()
		rl.Middleware()(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("fail-closed must deny on backend error, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Fatal("expected Retry-After header")
		}
	})
}
