// Package sweep runs the background expiry pass: tombstoning objects whose
// TTL elapsed, reclaiming their payloads, and dropping stale conversation
// slots. Redemption already enforces expiry lazily; the sweeper keeps
// storage from accumulating dead weight between redemptions.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkarimi/go-file-relay/internal/sentry"
	"github.com/nkarimi/go-file-relay/internal/services"
)

// batchSize bounds one expired-object query.
const batchSize = 200

// Sweeper periodically expires objects and conversation slots.
type Sweeper struct {
	Links    *services.LinkService
	States   *services.StateService
	Interval time.Duration
}

// New constructs a Sweeper.
func New(links *services.LinkService, states *services.StateService, interval time.Duration) *Sweeper {
	return &Sweeper{Links: links, States: states, Interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.Interval).Msg("sweeper starting")

	s.Once(ctx)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Once(ctx)
		}
	}
}

// Once performs a single sweep pass. Failures are reported and logged but
// never stop the loop; the next tick retries.
func (s *Sweeper) Once(ctx context.Context) {
	swept, err := s.Links.SweepExpired(ctx, batchSize)
	if err != nil {
		sentry.CaptureError(err)
		log.Error().Err(err).Msg("object sweep failed")
	}

	states, err := s.States.SweepExpired(ctx)
	if err != nil {
		sentry.CaptureError(err)
		log.Error().Err(err).Msg("state sweep failed")
	}

	if swept > 0 || states > 0 {
		log.Info().Int("objects", swept).Int64("states", states).Msg("sweep pass complete")
	}
}
