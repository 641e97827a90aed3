package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper removes expired sessions from a store that does not expire them itself.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Cleaner runs a Sweeper on a schedule.
type Cleaner struct {
	sweeper  Sweeper
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(sweeper Sweeper, interval time.Duration) *Cleaner {
	return &Cleaner{sweeper: sweeper, interval: interval}
}

// Run sweeps every interval until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.sweeper == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session cleaner stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	removed, err := c.sweeper.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Session sweep failed")
		return
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Expired sessions cleared")
	}
}
