// Package services – FetchService
//
// This file implements the FetchService, which pulls remote payloads over
// HTTP(S) on behalf of the URL conversion flow. It validates the submitted
// URL, applies a request timeout, rejects oversized payloads early when the
// remote declares a Content-Length, and derives a usable file name from the
// response.
//
// The returned body is a raw stream; the hard size cap is enforced while
// storing in LinkService.Issue, so a lying Content-Length still cannot smuggle
// an oversized payload.
package services

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// FetchResult describes a successfully opened remote payload. The caller
// must close Body.
type FetchResult struct {
	// Name is the best-effort file name (Content-Disposition, then URL path).
	Name string
	// ContentType is the declared media type, possibly empty.
	ContentType string
	// Size is the declared Content-Length, or -1 when unknown.
	Size int64
	// Body streams the payload.
	Body io.ReadCloser
}

// FetchService retrieves remote objects for the URL conversion flow.
type FetchService struct {
	// Client is the HTTP client used for upstream requests. A nil Client
	// falls back to a 60s-timeout default.
	Client *http.Client
	// MaxPayload rejects declared sizes above the cap before any transfer.
	MaxPayload int64
	// UserAgent is sent on upstream requests.
	UserAgent string
}

// NewFetchService constructs a FetchService with a bounded default client.
func NewFetchService(maxPayload int64) *FetchService {
	return &FetchService{
		Client:     &http.Client{Timeout: 60 * time.Second},
		MaxPayload: maxPayload,
		UserAgent:  "go-file-relay/1.0",
	}
}

// ValidateURL reports whether raw is an absolute http(s) URL with a host.
// It returns the parsed URL or ErrInvalidURL.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Fetch opens the remote payload at raw. Non-2xx responses and transport
// failures map to ErrUpstreamFetch; a declared size above MaxPayload maps to
// ErrPayloadTooLarge without transferring anything.
func (s *FetchService) Fetch(ctx context.Context, raw string) (*FetchResult, error) {
	u, err := ValidateURL(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUpstreamFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, ErrUpstreamFetch
	}
	if s.MaxPayload > 0 && resp.ContentLength > s.MaxPayload {
		resp.Body.Close()
		return nil, ErrPayloadTooLarge
	}

	return &FetchResult{
		Name:        remoteFileName(resp, u),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}, nil
}

// remoteFileName derives a file name from the Content-Disposition header,
// falling back to the last URL path segment, then to a generic name.
func remoteFileName(resp *http.Response, u *url.URL) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return path.Base(name)
			}
		}
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
		return base
	}
	return "download"
}
