// Package eventbus fans typed domain events out to bounded per-subscriber
// queues and provides the blocking wait_for_event primitive (spec §4.5).
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/winstanley-industries/preflight/internal/domain"
)

// DefaultQueueCapacity is the default per-subscriber queue depth.
const DefaultQueueCapacity = 256

// Bus is a multi-subscriber pub/sub fan-out point. The zero value is not
// usable; construct with New.
type Bus struct {
	queueCapacity int
	nextID        uint64

	mu   sync.RWMutex
	subs map[uint64]*Subscription
}

// New builds a Bus whose subscribers each get a queue of queueCapacity
// events. A non-positive value uses DefaultQueueCapacity.
func New(queueCapacity int) *Bus {
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	return &Bus{
		queueCapacity: queueCapacity,
		subs:          make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new subscription admitting only events matching
// filter. The caller must Close it when done to free resources. The bus
// does no AgentPresence bookkeeping; Close only unregisters the
// subscription.
func (b *Bus) Subscribe(filter Filter) *Subscription {
	id := atomic.AddUint64(&b.nextID, 1)
	sub := newSubscription(id, b, filter, b.queueCapacity)

	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()

	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()
}

// Publish delivers e to every subscriber whose filter matches. Events
// published by a single call to Publish are enqueued on every matching
// subscriber before Publish returns, satisfying spec §5's ordering
// guarantee that a reader observing a state change knows the corresponding
// event is already visible to all then-current subscribers.
func (b *Bus) Publish(e domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.filter.Matches(e) {
			sub.deliver(e)
		}
	}
}

// SubscriberCount returns the number of currently registered subscriptions
// across all filters.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
