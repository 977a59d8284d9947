package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func serveResponse(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestFail_ServerErrorLogsAndEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/broken", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, "internal_error", "storage unavailable")
	})

	w := serveResponse(r, "/broken")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != "internal_error" || resp.Message != "storage unavailable" {
		t.Fatalf("envelope = %+v", resp)
	}
	// 5xx goes through the request-scoped logger at error level.
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("missing error log:\n%s", buf.String())
	}
}

func TestFail_ExpiredLinkEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-410")
		c.Next()
	})
	r.GET("/download/:id", func(c *gin.Context) {
		Fail(c, http.StatusGone, "link_expired", "link expired or deleted")
	})

	w := serveResponse(r, "/download/abc123")
	if w.Code != http.StatusGone {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-410" || resp.Code != "link_expired" || resp.Message != "link expired or deleted" {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestOkHelper(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/links/abc", func(c *gin.Context) {
		ok(c, http.StatusOK, gin.H{"id": "abc123", "downloads": 3})
	})

	w := serveResponse(r, "/api/v1/links/abc")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["id"] != "abc123" || int(body["downloads"].(float64)) != 3 {
		t.Fatalf("body = %#v", body)
	}
}
