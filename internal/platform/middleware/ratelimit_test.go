package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ip != "" {
		req.RemoteAddr = ip + ":1234"
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := serve(e, h, "")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := serve(e, h, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := serve(e, h, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("client a first request: %v", err)
	}
	if _, err := serve(e, h, "10.0.0.1"); err == nil {
		t.Fatal("client a second request: expected rate limit error")
	}
	if _, err := serve(e, h, "10.0.0.2"); err != nil {
		t.Fatalf("client b first request: %v", err)
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	e := echo.New()
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		KeyFunc:           func(echo.Context) string { return "shared" },
	}
	h := RateLimit(cfg)(okHandler)

	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := serve(e, h, "10.0.0.2"); err == nil {
		t.Fatal("expected shared bucket to be exhausted")
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(1, 1, now)
	if !b.allow(now) {
		t.Fatal("expected first token")
	}
	if b.allow(now) {
		t.Fatal("expected bucket to be empty")
	}
	if !b.allow(now.Add(1100 * time.Millisecond)) {
		t.Fatal("expected refill after one second")
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(0, 1, now)
	b.allow(now)
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestClientLimiter_SweepsIdleBuckets(t *testing.T) {
	l := newClientLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	start := time.Now()
	l.bucket("a", start)
	l.bucket("b", start)
	if l.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", l.size())
	}

	l.bucket("c", start.Add(2*time.Minute))
	if l.size() != 1 {
		t.Errorf("expected idle buckets swept, got %d", l.size())
	}
}

func TestClientLimiter_SameKeySameBucket(t *testing.T) {
	l := newClientLimiter(DefaultRateLimitConfig())
	now := time.Now()
	if l.bucket("key1", now) != l.bucket("key1", now) {
		t.Error("expected same bucket instance for same key")
	}
	if l.bucket("key1", now) == l.bucket("key2", now) {
		t.Error("expected different bucket for different key")
	}
}
