// Package worker manages the background change feed lifecycle.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/infrastructure/changefeed"
)

// Runner owns the change feed poller goroutine. Exactly one poller runs per
// process; more would duplicate bus events.
type Runner struct {
	poller *changefeed.Poller
	log    zerolog.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRunner creates the feed runner.
func NewRunner(poller *changefeed.Poller, log zerolog.Logger) *Runner {
	return &Runner{
		poller: poller,
		log:    log.With().Str("component", "feed-runner").Logger(),
	}
}

// Start launches the poller.
func (r *Runner) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.poller.Run(runCtx); err != nil {
			r.log.Error().Err(err).Msg("change feed stopped with error")
		}
	}()

	r.log.Info().Msg("change feed runner started")
	return nil
}

// Stop gracefully shuts down the poller.
func (r *Runner) Stop() {
	r.log.Info().Msg("stopping change feed runner")

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info().Msg("change feed stopped gracefully")
	case <-time.After(30 * time.Second):
		r.log.Warn().Msg("change feed shutdown timed out")
	}
}
