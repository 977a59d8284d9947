// Package bot – Poller
//
// The poller drives the long-poll loop against getUpdates and feeds each
// update to the router. It backs off on transport errors and exits cleanly
// when its context is canceled.
package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkarimi/go-file-relay/internal/sentry"
)

// Handler consumes one update. *Router implements it.
type Handler interface {
	HandleUpdate(ctx context.Context, up Update)
}

// UpdateSource produces updates. *Client implements it.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller runs the ingress loop.
type Poller struct {
	Source  UpdateSource
	Handler Handler
	// Timeout is the server-side long-poll hold per getUpdates call.
	Timeout time.Duration
	// Backoff is the pause after a failed call.
	Backoff time.Duration
}

// NewPoller constructs a Poller with sane polling parameters.
func NewPoller(src UpdateSource, h Handler, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		Source:  src,
		Handler: h,
		Timeout: timeout,
		Backoff: 3 * time.Second,
	}
}

// Run polls until ctx is canceled. The confirmed offset advances past every
// delivered update so a restart never replays handled messages.
func (p *Poller) Run(ctx context.Context) error {
	log.Info().Dur("timeout", p.Timeout).Msg("bot poller starting")

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			log.Info().Msg("bot poller stopping")
			return err
		}

		updates, err := p.Source.GetUpdates(ctx, offset, p.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("bot poller stopping")
				return ctx.Err()
			}
			sentry.CaptureError(err)
			log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff):
			}
			continue
		}

		for _, up := range updates {
			p.Handler.HandleUpdate(ctx, up)
			if up.UpdateID >= offset {
				offset = up.UpdateID + 1
			}
		}
	}
}
