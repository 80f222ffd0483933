// Package refresh tells listing views that the set of requests changed.
package refresh

import (
	"context"
	"sync"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/event"
)

// Hub fans refresh events out to subscribers. A subscriber that does not keep up
// misses events rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// Subscription receives refresh events until cancelled
type Subscription struct {
	C    <-chan port.RefreshEvent
	ch   chan port.RefreshEvent
	hub  *Hub
	once sync.Once
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

// Subscribe registers a new listener
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan port.RefreshEvent, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Cancel unregisters the subscription and closes its channel
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Publish implements port.RefreshPublisher
func (h *Hub) Publish(evt port.RefreshEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// HandleRequestRecorded is the dispatcher handler that forwards recorded requests
func (h *Hub) HandleRequestRecorded(ctx context.Context, evt *event.Event) error {
	h.Publish(port.RefreshEvent{RequestID: evt.RequestID, FormKey: evt.FormKey})
	return nil
}

var _ port.RefreshPublisher = (*Hub)(nil)
