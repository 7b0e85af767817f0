// Package broadcast fans freshly reconciled snapshots out to observers.
package broadcast

import (
	"sync"

	"github.com/drivepulse/drivepulse/internal/alert"
	"github.com/drivepulse/drivepulse/internal/dashboard"
	"github.com/drivepulse/drivepulse/internal/metrics"
)

// Update is one delivery: the snapshot after a fold, plus any alert rules
// that fired on it.
type Update struct {
	Snapshot dashboard.State `json:"snapshot"`
	Alerts   []alert.Alert   `json:"alerts,omitempty"`
}

// Hub delivers updates to all current subscribers. Delivery is best-effort
// and never blocks the publisher: each subscriber has a bounded queue and a
// slow subscriber loses its oldest pending update, never its ordering.
type Hub struct {
	mu        sync.Mutex
	subs      map[*Subscriber]struct{}
	latest    Update
	hasLatest bool
	buffer    int
}

// Subscriber is one observer's membership in the hub.
type Subscriber struct {
	ch chan Update
}

// Updates is the subscriber's delivery channel. It is closed on
// Unsubscribe and on hub Close.
func (s *Subscriber) Updates() <-chan Update {
	return s.ch
}

// NewHub creates a Hub whose subscribers each buffer up to buffer updates.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new observer. The current snapshot, if any has been
// published, is queued as the subscriber's first delivery so a fresh
// observer starts with no gap.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &Subscriber{ch: make(chan Update, h.buffer)}
	h.subs[sub] = struct{}{}
	if h.hasLatest {
		sub.ch <- h.latest
	}
	metrics.BroadcastSubscribers.Set(float64(len(h.subs)))
	return sub
}

// Unsubscribe removes the observer and closes its channel. After
// Unsubscribe returns, no further delivery reaches the subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
	metrics.BroadcastSubscribers.Set(float64(len(h.subs)))
}

// Publish delivers u to every subscriber without blocking. When a
// subscriber's queue is full its oldest pending update is dropped to make
// room, so the subscriber still observes snapshots in publish order.
func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = u
	h.hasLatest = true
	for sub := range h.subs {
		select {
		case sub.ch <- u:
		default:
			select {
			case <-sub.ch:
				metrics.BroadcastDropped.Inc()
			default:
			}
			select {
			case sub.ch <- u:
			default:
			}
		}
	}
}

// Close unsubscribes everyone. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
	metrics.BroadcastSubscribers.Set(0)
}
