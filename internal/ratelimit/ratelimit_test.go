package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestMemoryLimiter_HundredthAllowedHundredFirstRejected(t *testing.T) {
	limiter := NewMemoryLimiter(100, 15*time.Minute)
	defer limiter.Close()
	ctx := context.Background()

	for i := 1; i <= 100; i++ {
		result, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	result, _ := limiter.Allow(ctx, "10.0.0.1")
	if result.Allowed {
		t.Error("101st request should be rejected")
	}
	if result.RetryAfterSeconds() < 1 {
		t.Error("retry-after must be at least 1 second")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Minute)
	defer limiter.Close()
	ctx := context.Background()

	if r, _ := limiter.Allow(ctx, "a"); !r.Allowed {
		t.Fatal("first request for a should pass")
	}
	if r, _ := limiter.Allow(ctx, "a"); r.Allowed {
		t.Fatal("second request for a should be limited")
	}
	if r, _ := limiter.Allow(ctx, "b"); !r.Allowed {
		t.Error("key b should have its own window")
	}
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	limiter := NewMemoryLimiter(1, 10*time.Millisecond)
	defer limiter.Close()
	ctx := context.Background()

	limiter.Allow(ctx, "k")
	if r, _ := limiter.Allow(ctx, "k"); r.Allowed {
		t.Fatal("expected limit hit")
	}

	time.Sleep(15 * time.Millisecond)

	if r, _ := limiter.Allow(ctx, "k"); !r.Allowed {
		t.Error("window should have reset")
	}
}

func TestMemoryLimiter_RemainingCountsDown(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Minute)
	defer limiter.Close()
	ctx := context.Background()

	want := []int{2, 1, 0}
	for i, expected := range want {
		r, _ := limiter.Allow(ctx, "k")
		if r.Remaining != expected {
			t.Errorf("request %d: remaining = %d, want %d", i+1, r.Remaining, expected)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMiddleware_RejectsWith429(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Minute)
	defer limiter.Close()

	e := echo.New()
	mw := Middleware(limiter, discardLogger())
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	run := func() error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		rec := httptest.NewRecorder()
		return handler(e.NewContext(req, rec))
	}

	if err := run(); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	err := run()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestMiddleware_NilLimiterPassesThrough(t *testing.T) {
	e := echo.New()
	mw := Middleware(nil, discardLogger())
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Result, error) {
	return Result{}, context.DeadlineExceeded
}
func (failingLimiter) Close() error { return nil }

func TestMiddleware_FailsOpenOnLimiterError(t *testing.T) {
	e := echo.New()
	mw := Middleware(failingLimiter{}, discardLogger())

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler should run when limiter errors")
	}
}

func TestClientKey_StripsPort(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:61234"
	c := e.NewContext(req, httptest.NewRecorder())

	if got := ClientKey(c); got != "203.0.113.7" {
		t.Errorf("ClientKey() = %q", got)
	}
}
