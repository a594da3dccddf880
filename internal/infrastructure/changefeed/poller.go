package changefeed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/infrastructure/metrics"
)

// cursorName identifies the live fan-out consumer in the cursor table.
const cursorName = "message_feed"

// Source exposes the committed-write feed the poller reads from.
type Source interface {
	ListAfter(ctx context.Context, afterID uint, limit int) ([]*message.Message, error)
	LatestID(ctx context.Context) (uint, error)
}

// Publisher receives the derived events.
type Publisher interface {
	Publish(ev stream.Event)
}

// Poller tails the message table past a durable cursor and publishes one
// event per committed row. Delivery is at-least-once: events go to the bus
// before the cursor advances, so a crash replays rather than skips.
type Poller struct {
	source    Source
	cursors   CursorStore
	bus       Publisher
	interval  time.Duration
	batchSize int
	log       zerolog.Logger

	cursor      uint
	initialized bool
}

// NewPoller constructs the change feed poller.
func NewPoller(source Source, cursors CursorStore, bus Publisher, interval time.Duration, batchSize int, log zerolog.Logger) *Poller {
	return &Poller{
		source:    source,
		cursors:   cursors,
		bus:       bus,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With().Str("component", "changefeed").Logger(),
	}
}

// Run drives the poll loop until the context is canceled. Poll failures are
// logged and retried on the next tick; the feed never takes the process down.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !p.initialized {
				if err := p.initCursor(ctx); err != nil {
					p.log.Error().Err(err).Msg("initialize feed cursor")
					continue
				}
			}
			if err := p.poll(ctx); err != nil {
				p.log.Error().Err(err).Msg("poll change feed")
			}
		}
	}
}

// initCursor resumes from the persisted position. A missing cursor starts at
// the current tail: messages written before the first start are not replayed,
// which is acceptable for a live feed and logged loudly.
func (p *Poller) initCursor(ctx context.Context) error {
	position, found, err := p.cursors.Get(ctx, cursorName)
	if err != nil {
		return err
	}

	if !found {
		latest, err := p.source.LatestID(ctx)
		if err != nil {
			return err
		}
		position = latest
		if err := p.cursors.Set(ctx, cursorName, position); err != nil {
			return err
		}
		p.log.Warn().Uint("position", position).Msg("no stream cursor found, starting at current tail")
	} else {
		p.log.Info().Uint("position", position).Msg("resuming change feed from stored cursor")
	}

	p.cursor = position
	p.initialized = true
	return nil
}

func (p *Poller) poll(ctx context.Context) error {
	latest, err := p.source.LatestID(ctx)
	if err != nil {
		return err
	}

	for {
		batch, err := p.source.ListAfter(ctx, p.cursor, p.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			p.recordLag(latest)
			return nil
		}

		for _, msg := range batch {
			p.bus.Publish(stream.NewEvent(msg))
			p.cursor = msg.ID
		}
		metrics.FeedPublished(len(batch))

		if err := p.cursors.Set(ctx, cursorName, p.cursor); err != nil {
			// Events already went out; the next start replays from the old
			// position, trading duplicates for losses.
			p.log.Error().Err(err).Uint("position", p.cursor).Msg("persist feed cursor")
		}

		if len(batch) < p.batchSize {
			p.recordLag(latest)
			return nil
		}
	}
}

// recordLag reports how far the published position trails the newest row
// committed at the start of the poll.
func (p *Poller) recordLag(latest uint) {
	if latest > p.cursor {
		metrics.SetFeedLag(int(latest - p.cursor))
		return
	}
	metrics.SetFeedLag(0)
}
