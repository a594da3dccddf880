package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/infrastructure/metrics"
)

type fakeSource struct {
	mu       sync.Mutex
	messages []*message.Message
	// visibleThrough caps what ListAfter returns while LatestID still sees
	// every row, mimicking rows committed after the list snapshot. Zero
	// means everything is visible.
	visibleThrough uint
}

func (f *fakeSource) add(ids ...uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.messages = append(f.messages, &message.Message{
			ID:            id,
			PublicID:      "msg_x",
			TenantID:      "tenant-a",
			WorkflowID:    "wf-1",
			ParticipantID: "user-1",
			Type:          "text",
		})
	}
}

func (f *fakeSource) ListAfter(ctx context.Context, afterID uint, limit int) ([]*message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*message.Message
	for _, msg := range f.messages {
		if msg.ID <= afterID {
			continue
		}
		if f.visibleThrough != 0 && msg.ID > f.visibleThrough {
			continue
		}
		out = append(out, msg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSource) reveal(through uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibleThrough = through
}

func (f *fakeSource) LatestID(ctx context.Context) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest uint
	for _, msg := range f.messages {
		if msg.ID > latest {
			latest = msg.ID
		}
	}
	return latest, nil
}

type memoryCursorStore struct {
	mu        sync.Mutex
	positions map[string]uint
}

func newMemoryCursorStore() *memoryCursorStore {
	return &memoryCursorStore{positions: make(map[string]uint)}
}

func (s *memoryCursorStore) Get(ctx context.Context, name string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[name]
	return pos, ok, nil
}

func (s *memoryCursorStore) Set(ctx context.Context, name string, position uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[name] = position
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []stream.Event
}

func (p *capturePublisher) Publish(ev stream.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) ids() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]uint, len(p.events))
	for i, ev := range p.events {
		ids[i] = ev.Message.ID
	}
	return ids
}

func TestPollerResumesFromStoredCursor(t *testing.T) {
	source := &fakeSource{}
	source.add(1, 2, 3, 4)
	cursors := newMemoryCursorStore()
	require.NoError(t, cursors.Set(context.Background(), cursorName, 2))
	bus := &capturePublisher{}

	poller := NewPoller(source, cursors, bus, time.Second, 10, zerolog.Nop())
	require.NoError(t, poller.initCursor(context.Background()))
	require.NoError(t, poller.poll(context.Background()))

	assert.Equal(t, []uint{3, 4}, bus.ids())

	pos, found, err := cursors.Get(context.Background(), cursorName)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint(4), pos)
}

func TestPollerStartsAtTailWithoutCursor(t *testing.T) {
	source := &fakeSource{}
	source.add(1, 2, 3)
	cursors := newMemoryCursorStore()
	bus := &capturePublisher{}

	poller := NewPoller(source, cursors, bus, time.Second, 10, zerolog.Nop())
	require.NoError(t, poller.initCursor(context.Background()))

	// Pre-existing rows are not replayed.
	require.NoError(t, poller.poll(context.Background()))
	assert.Empty(t, bus.ids())

	// New writes flow through.
	source.add(4, 5)
	require.NoError(t, poller.poll(context.Background()))
	assert.Equal(t, []uint{4, 5}, bus.ids())
}

func TestPollerDrainsInBatches(t *testing.T) {
	source := &fakeSource{}
	source.add(1, 2, 3, 4, 5)
	cursors := newMemoryCursorStore()
	require.NoError(t, cursors.Set(context.Background(), cursorName, 0))
	bus := &capturePublisher{}

	poller := NewPoller(source, cursors, bus, time.Second, 2, zerolog.Nop())
	require.NoError(t, poller.initCursor(context.Background()))
	require.NoError(t, poller.poll(context.Background()))

	assert.Equal(t, []uint{1, 2, 3, 4, 5}, bus.ids())
}

func TestPollerPublishesInCommitOrder(t *testing.T) {
	source := &fakeSource{}
	source.add(10, 11, 12)
	cursors := newMemoryCursorStore()
	require.NoError(t, cursors.Set(context.Background(), cursorName, 0))
	bus := &capturePublisher{}

	poller := NewPoller(source, cursors, bus, time.Second, 10, zerolog.Nop())
	require.NoError(t, poller.initCursor(context.Background()))
	require.NoError(t, poller.poll(context.Background()))

	ids := bus.ids()
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i], "events must keep commit order")
	}
}

func TestPollerReportsFeedLag(t *testing.T) {
	source := &fakeSource{visibleThrough: 3}
	source.add(1, 2, 3, 4, 5)
	cursors := newMemoryCursorStore()
	require.NoError(t, cursors.Set(context.Background(), cursorName, 0))
	bus := &capturePublisher{}

	poller := NewPoller(source, cursors, bus, time.Second, 10, zerolog.Nop())
	require.NoError(t, poller.initCursor(context.Background()))

	// Rows 4 and 5 are committed but not yet listable.
	require.NoError(t, poller.poll(context.Background()))
	assert.Equal(t, []uint{1, 2, 3}, bus.ids())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FeedLag))

	// Once the remaining rows become visible the gauge returns to zero.
	source.reveal(0)
	require.NoError(t, poller.poll(context.Background()))
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, bus.ids())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.FeedLag))
}

func TestPollerRunHonorsCancellation(t *testing.T) {
	source := &fakeSource{}
	cursors := newMemoryCursorStore()
	bus := &capturePublisher{}

	poller := NewPoller(source, cursors, bus, 5*time.Millisecond, 10, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	source.add(1)
	require.Eventually(t, func() bool {
		return len(bus.ids()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
