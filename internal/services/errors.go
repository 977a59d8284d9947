// Package services defines the business logic for quotas, links, fetching,
// and conversation state. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/router layer.
package services

import "errors"

// Quota-related errors.
var (
	// ErrDailyLimitReached is returned when a free-tier user has exhausted
	// today's conversion allowance.
	ErrDailyLimitReached = errors.New("daily limit reached")

	// ErrBanned is returned when a banned user attempts a conversion.
	ErrBanned = errors.New("user is banned")

	// ErrUserNotFound indicates that the addressed user is unknown.
	ErrUserNotFound = errors.New("user not found")

	// ErrSelfReferral is returned when a user follows their own deep link.
	ErrSelfReferral = errors.New("cannot refer yourself")
)

// Link-related errors.
var (
	// ErrLinkNotFound indicates that no object exists for the link id, or
	// that the object has been tombstoned.
	ErrLinkNotFound = errors.New("link not found")

	// ErrLinkExpired indicates that the object's TTL elapsed before this
	// redemption attempt.
	ErrLinkExpired = errors.New("link expired")

	// ErrPayloadTooLarge is returned when a payload exceeds the configured
	// size cap.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrTransferFailed is returned when storing or reading a payload fails
	// mid-stream.
	ErrTransferFailed = errors.New("payload transfer failed")
)

// Fetch-related errors.
var (
	// ErrInvalidURL is returned when the submitted text is not an absolute
	// http(s) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUpstreamFetch is returned when the remote host refuses or fails
	// the request.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
)
