package stream

import (
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives published events. Handlers must not block; slow consumers
// buffer or drop on their side of the bridge.
type Handler func(Event)

// Bus is the in-process fan-out point between the change feed and live
// subscribers. Delivery is fire-and-drop: an event published while nobody
// listens is gone, and a failing subscriber never affects the others.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]Handler
	log    zerolog.Logger
}

// NewBus constructs an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[uint64]Handler),
		log:  log.With().Str("component", "stream_bus").Logger(),
	}
}

// Subscribe registers a handler and returns its subscription token.
func (b *Bus) Subscribe(h Handler) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[id] = h
	return id
}

// Unsubscribe removes a subscription. Unknown tokens are a no-op.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers the event to every current subscriber. A panicking
// handler is isolated and logged; publish order is preserved per subscriber
// because delivery is synchronous.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("group_id", ev.GroupID).
				Msg("subscriber panicked during delivery")
		}
	}()
	h(ev)
}
