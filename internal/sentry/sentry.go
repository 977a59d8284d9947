// Package sentry wraps error reporting. A missing DSN turns every capture
// into a cheap no-op, so callers never need to guard their call sites.
package sentry

import (
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ignoredErrors contains error messages that should be logged but not sent
// to Sentry. These are caused by clients abandoning downloads mid-stream or
// normal shutdowns and create noise.
var ignoredErrors = []string{
	"connection reset by peer",
	"broken pipe",
	"use of closed network connection",
	"context canceled",
	"EOF",
}

var enabled bool

// Init configures the global Sentry client. An empty DSN disables reporting
// entirely.
func Init(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return err
	}
	enabled = true
	return nil
}

// Flush drains pending events on shutdown.
func Flush() {
	if enabled {
		sentry.Flush(2 * time.Second)
	}
}

// shouldIgnore filters noise-level errors out of Sentry.
func shouldIgnore(err error) bool {
	if err == nil {
		return true
	}
	type timeoutError interface{ Timeout() bool }
	if te, ok := err.(timeoutError); ok && te.Timeout() {
		return true
	}
	msg := err.Error()
	for _, ignored := range ignoredErrors {
		if strings.Contains(msg, ignored) {
			return true
		}
	}
	return false
}

// CaptureError reports an error to Sentry. Use this outside of HTTP request
// context (bot loop, sweeper, startup).
func CaptureError(err error) {
	if !enabled || shouldIgnore(err) {
		return
	}
	sentry.CaptureException(err)
}

// CaptureErrorWithContext reports an error together with HTTP request
// diagnostics when a request-scoped hub is available.
func CaptureErrorWithContext(c *gin.Context, err error) {
	if !enabled || shouldIgnore(err) {
		return
	}
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		sentry.CaptureException(err)
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if c != nil && c.Request != nil {
			scope.SetTag("http.method", c.Request.Method)
			scope.SetTag("http.path", c.Request.URL.Path)
			scope.SetExtra("http.remote_ip", c.ClientIP())
			if rid := c.GetHeader("X-Request-ID"); rid != "" {
				scope.SetTag("request_id", rid)
			}
		}
		hub.CaptureException(err)
	})
}

// Middleware returns the gin integration when reporting is enabled, or a
// pass-through otherwise.
func Middleware() gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	log.Debug().Msg("sentry gin middleware enabled")
	return sentrygin.New(sentrygin.Options{Repanic: true})
}
