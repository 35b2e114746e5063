package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/winstanley-industries/preflight/internal/domain"
)

// WaitResult tags how a Wait call returned.
type WaitResult int

const (
	WaitDelivered WaitResult = iota
	WaitTimeout
	WaitCancelled
)

// DefaultTimeout and MaxTimeout bound wait_for_event per spec §5: a caller
// with no opinion waits 30s; no caller may block longer than 300s.
const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 300 * time.Second
)

// Subscription is one registered listener on the bus. Events admitted by
// its Filter accumulate in a bounded queue until drained by Wait.
type Subscription struct {
	id       uint64
	bus      *Bus
	filter   Filter
	capacity int

	mu         sync.Mutex
	queue      []domain.Event
	dropped    bool
	dropReview string
	dropAt     time.Time
	notify     chan struct{}
	closed     chan struct{}
}

func newSubscription(id uint64, bus *Bus, filter Filter, capacity int) *Subscription {
	return &Subscription{
		id:       id,
		bus:      bus,
		filter:   filter,
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// deliver admits e into the queue unless the subscription is closed; a
// closed subscription silently drops everything.
func (s *Subscription) deliver(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return
	default:
	}

	if len(s.queue) < s.capacity {
		s.queue = append(s.queue, e)
		s.wake()
		return
	}

	// Overflow: drop the oldest queued event and remember that a drop
	// happened. Rather than inserting a marker into the queue (where a
	// real event appended later could end up sharing the queue with a
	// second, distinct marker), a single "a drop occurred" flag is kept
	// outside the queue and surfaces as one synthetic event_dropped event,
	// consumed ahead of every surviving queued event, the first time a
	// caller drains this subscription (spec §4.5's "inserted once,
	// collapsed across further drops until the queue drains").
	s.queue = s.queue[1:]
	s.queue = append(s.queue, e)
	s.dropped = true
	s.dropReview = e.ReviewID
	s.dropAt = e.Timestamp
	s.wake()
}

// Wait blocks until an admitted event matching selector is available, the
// timeout elapses, ctx is cancelled, or the subscription is dropped.
// timeout is clamped to (0, MaxTimeout]; zero or negative uses
// DefaultTimeout.
func (s *Subscription) Wait(ctx context.Context, selector Filter, timeout time.Duration) (domain.Event, WaitResult) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if ev, ok := s.takeMatching(selector); ok {
			return ev, WaitDelivered
		}

		select {
		case <-s.notify:
			continue
		case <-s.closed:
			return domain.Event{}, WaitCancelled
		case <-ctx.Done():
			return domain.Event{}, WaitCancelled
		case <-deadline.C:
			return domain.Event{}, WaitTimeout
		}
	}
}

func (s *Subscription) takeMatching(selector Filter) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A pending drop always surfaces before any surviving queued event:
	// the subscriber must learn it lost events ahead of whatever recent
	// events followed them, never interleaved among them.
	if s.dropped {
		ev := domain.Event{Kind: domain.EventDropped, ReviewID: s.dropReview, Timestamp: s.dropAt}
		if selector.Matches(ev) {
			s.dropped = false
			return ev, true
		}
	}

	for i, ev := range s.queue {
		if selector.Matches(ev) {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return ev, true
		}
	}
	return domain.Event{}, false
}

// Close drops the subscription. Any in-flight Wait returns WaitCancelled.
// Unsubscribing is idempotent.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}
