// Download HTTP handlers.
//
// This file exposes the unauthenticated redemption endpoint:
//   - GET /download/{id}   (stream the payload)
//
// Handlers are transport-thin: they call the link service and translate its
// sentinel errors into HTTP statuses. The payload is streamed straight from
// the blob store to the response writer.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkarimi/go-file-relay/internal/domain"
	"github.com/nkarimi/go-file-relay/internal/sentry"
	"github.com/nkarimi/go-file-relay/internal/services"
)

//
// Service contracts (context-aware)
//

// LinkService defines link redemption and inspection operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LinkService interface {
	// Redeem opens the payload for a live link and accounts the download.
	Redeem(ctx context.Context, id string) (*domain.StoredObject, io.ReadCloser, error)
	// Metadata returns the metadata row for a live link.
	Metadata(ctx context.Context, id string) (*domain.StoredObject, error)
	// URL returns the public download URL for an object.
	URL(o *domain.StoredObject) string
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the relay. It depends on an abstract
// service interface to keep transport concerns separate from business logic.
type Handlers struct {
	links LinkService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(links LinkService) *Handlers {
	return &Handlers{links: links}
}

// Download streams the payload behind a link id.
//
// @ID          downloadObject
// @Summary     Download an object
// @Description Streams the payload for a live link. No authentication; the link id is the capability.
// @Tags        Download
// @Produce     octet-stream
//
// @Param       id  path  string  true  "Link id"  example(aB3dE5fG7hJ9kL1m)
//
// @Success     200  {file}    file                    "Payload bytes"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown or deleted link"
// @Failure     410  {object}  handlers.ErrorResponse  "Expired link"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /download/{id} [get]
func (h *Handlers) Download(c *gin.Context) {
	id := c.Param("id")

	o, rc, err := h.links.Redeem(c.Request.Context(), id)
	if err != nil {
		h.failLink(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", o.Name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, o.Size, o.ContentType, rc, nil)
}

// failLink maps link sentinel errors to HTTP responses.
func (h *Handlers) failLink(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "link not found")
	case errors.Is(err, services.ErrLinkExpired):
		fail(c, http.StatusGone, ErrCodeGone, "link expired")
	default:
		sentry.CaptureErrorWithContext(c, err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not serve object")
	}
}
