package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedactingLogger_MasksAndPatterns(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Relay-Token"}}))
	r.GET("/download/:id", func(c *gin.Context) { c.String(http.StatusOK, "payload") })

	// Redemption links get pasted around with tracking junk attached; the
	// raw query goes through the pattern redactor, not a parser.
	q := "from=a.b+tag@example.com&cb=+1-555-123-4567&trace=123e4567-e89b-12d3-a456-426614174000"
	w := serveOnce(r, http.MethodGet, "/download/abc123?"+q, map[string]string{
		"Authorization": "Bearer secret",
		"Cookie":        "sid=topsecret",
		"X-Relay-Token": "shhh",
		"X-Forwarded":   "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567",
		"X-Request-ID":  "rid-req",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("missing info log:\n%s", logs)
	}
	if !strings.Contains(logs, `"path":"/download/:id"`) {
		t.Fatalf("path must use the route pattern:\n%s", logs)
	}
	// The id assigned on the response wins over whatever the client sent.
	if !strings.Contains(logs, `"request_id":"rid-resp"`) {
		t.Fatalf("request_id must come from the response header:\n%s", logs)
	}
	for _, tag := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]"} {
		if !strings.Contains(logs, tag) {
			t.Fatalf("query missing %s:\n%s", tag, logs)
		}
	}
	for _, h := range []string{"Authorization", "Cookie", "X-Relay-Token"} {
		if !strings.Contains(logs, `"`+h+`":"[REDACTED]"`) {
			t.Fatalf("%s must be fully masked:\n%s", h, logs)
		}
	}
	// Unmasked headers still get per-pattern redaction.
	if !strings.Contains(logs, `"X-Forwarded":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`) {
		t.Fatalf("X-Forwarded not pattern-redacted:\n%s", logs)
	}
}

func TestRedactingLogger_LevelsAndRequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)

	// No upstream RequestID middleware, so the logger falls back to the
	// client-sent header.
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/gone", func(c *gin.Context) { c.Status(http.StatusGone) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serveOnce(r, http.MethodGet, "/gone", map[string]string{"X-Request-ID": "rid-warn"})
	serveOnce(r, http.MethodGet, "/broken", map[string]string{"X-Request-ID": "rid-err"})

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("4xx must log warn with the fallback id:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("5xx must log error with the fallback id:\n%s", logs)
	}
}
