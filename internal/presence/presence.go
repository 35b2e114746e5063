// Package presence tracks, per review, whether an agent currently has an
// active wait_for_event subscription scoped to that review (spec §4.6).
// Bookkeeping is by reference count, not by process identity.
package presence

import (
	"sync"
	"time"

	"github.com/winstanley-industries/preflight/internal/domain"
)

// Publisher is the narrow slice of eventbus.Bus presence needs, so this
// package stays independent of the bus's subscription machinery.
type Publisher interface {
	Publish(e domain.Event)
}

// Tracker maintains one reference count per review.
type Tracker struct {
	bus Publisher
	now func() time.Time

	mu     sync.Mutex
	counts map[string]int
}

// New builds a Tracker publishing transitions onto bus.
func New(bus Publisher) *Tracker {
	return &Tracker{bus: bus, now: time.Now, counts: make(map[string]int)}
}

// Attach records one more agent subscription scoped to reviewID, emitting
// agent_presence_changed{connected: true} on a 0→1 transition. The returned
// func must be called exactly once, typically via defer, when that
// subscription ends; calling it more than once is a no-op after the first.
func (t *Tracker) Attach(reviewID string) (release func()) {
	t.mu.Lock()
	t.counts[reviewID]++
	becamePresent := t.counts[reviewID] == 1
	t.mu.Unlock()

	if becamePresent {
		t.publish(reviewID, true)
	}

	var once sync.Once
	return func() {
		once.Do(func() { t.detach(reviewID) })
	}
}

func (t *Tracker) detach(reviewID string) {
	t.mu.Lock()
	t.counts[reviewID]--
	becameAbsent := t.counts[reviewID] <= 0
	if becameAbsent {
		delete(t.counts, reviewID)
	}
	t.mu.Unlock()

	if becameAbsent {
		t.publish(reviewID, false)
	}
}

func (t *Tracker) publish(reviewID string, connected bool) {
	t.bus.Publish(domain.Event{
		Kind:      domain.EventAgentPresenceChanged,
		ReviewID:  reviewID,
		Timestamp: t.now(),
		Payload:   domain.AgentPresenceChangedPayload{ReviewID: reviewID, Connected: connected},
	})
}

// IsPresent reports whether any agent is currently attached to reviewID.
func (t *Tracker) IsPresent(reviewID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[reviewID] > 0
}
