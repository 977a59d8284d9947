package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func limiterCtx(t *testing.T, remoteIP string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/download/abc", nil)
	c.Request.RemoteAddr = net.JoinHostPort(remoteIP, "40000")
	return c
}

func TestKeyByUserOrIP(t *testing.T) {
	c := limiterCtx(t, "203.0.113.9")

	// Anonymous downloads key on the client IP.
	if key := KeyByUserOrIP()(c); !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("key = %q; want ip-based", key)
	}
	// A populated userID wins over the IP.
	c.Set("userID", "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("key = %q; want user:u123", key)
	}
}

func TestRateLimiter_VisitorReuseAndBurstFloor(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d; want floor of 1", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if lim == nil {
		t.Fatal("no limiter created")
	}
	if rl.getVisitor("k1") != lim {
		t.Fatal("same key must reuse the limiter")
	}
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())
	rl.ttl = time.Nanosecond

	rl.mu.Lock()
	rl.visitors["stale"] = &visitor{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: time.Now().Add(-time.Hour),
	}
	rl.cleanupN = 4999 // next getVisitor runs the sweep
	rl.mu.Unlock()

	_ = rl.getVisitor("fresh")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["stale"]; ok {
		t.Fatal("stale visitor survived the sweep")
	}
	if _, ok := rl.visitors["fresh"]; !ok {
		t.Fatal("fresh visitor missing")
	}
}

func TestRateBypassFlag(t *testing.T) {
	c := limiterCtx(t, "203.0.113.9")

	if IsRateBypass(c) {
		t.Fatal("bypass set on a fresh context")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatal("bypass flag not read back")
	}
	// A non-bool value reads as false instead of panicking.
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatal("non-bool bypass value treated as true")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// One token, no refill within the test: second request is refused.
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-1"); c.Next() })
	r.Use(rl.Handler())
	r.GET("/download/:id", func(c *gin.Context) { c.String(http.StatusOK, "payload") })

	if w := serveOnce(r, http.MethodGet, "/download/abc", nil); w.Code != http.StatusOK {
		t.Fatalf("first request = %d; want 200", w.Code)
	}

	w := serveOnce(r, http.MethodGet, "/download/abc", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d; want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q; want 1", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("429 body is not JSON: %v", err)
	}
	if body["code"] != "rate_limited" || body["message"] != "rate limit exceeded" {
		t.Fatalf("429 body = %v", body)
	}

	// A flagged request (health probes) skips the bucket entirely.
	probe := gin.New()
	probe.Use(func(c *gin.Context) { SetRateBypass(c); c.Next() })
	probe.Use(rl.Handler())
	probe.GET("/download/:id", func(c *gin.Context) { c.String(http.StatusOK, "payload") })
	if w := serveOnce(probe, http.MethodGet, "/download/abc", nil); w.Code != http.StatusOK {
		t.Fatalf("bypassed request = %d; want 200", w.Code)
	}
}
