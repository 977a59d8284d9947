// Link metadata HTTP handlers.
//
// This file exposes the JSON inspection endpoint:
//   - GET /api/v1/links/{id}   (metadata without payload transfer)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// LinkResponse is the JSON shape of link metadata.
type LinkResponse struct {
	ID          string    `json:"id" example:"aB3dE5fG7hJ9kL1m"`
	Name        string    `json:"name" example:"report.pdf"`
	Size        int64     `json:"size" example:"1048576"`
	ContentType string    `json:"content_type" example:"application/pdf"`
	Origin      string    `json:"origin" example:"uploaded"`
	Downloads   int64     `json:"downloads" example:"3"`
	URL         string    `json:"url" example:"https://relay.example.com/download/aB3dE5fG7hJ9kL1m"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func linkResponse(o *domain.StoredObject, url string) LinkResponse {
	return LinkResponse{
		ID:          o.ID,
		Name:        o.Name,
		Size:        o.Size,
		ContentType: o.ContentType,
		Origin:      o.Origin,
		Downloads:   o.Downloads,
		URL:         url,
		CreatedAt:   o.CreatedAt,
		ExpiresAt:   o.ExpiresAt,
	}
}

// GetLink returns metadata for a live link without transferring the payload
// or counting a download.
//
// @ID          getLink
// @Summary     Inspect a link
// @Description Returns metadata for a live link. The payload is not transferred and the download counter is untouched.
// @Tags        Links
// @Produce     json
//
// @Param       id  path  string  true  "Link id"  example(aB3dE5fG7hJ9kL1m)
//
// @Success     200  {object}  handlers.LinkResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown or deleted link"
// @Failure     410  {object}  handlers.ErrorResponse  "Expired link"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /links/{id} [get]
func (h *Handlers) GetLink(c *gin.Context) {
	id := c.Param("id")

	o, err := h.links.Metadata(c.Request.Context(), id)
	if err != nil {
		h.failLink(c, err)
		return
	}
	ok(c, http.StatusOK, linkResponse(o, h.links.URL(o)))
}
