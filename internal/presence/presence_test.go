package presence_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winstanley-industries/preflight/internal/domain"
	"github.com/winstanley-industries/preflight/internal/presence"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestFirstAttachEmitsConnectedTrue(t *testing.T) {
	pub := &recordingPublisher{}
	tr := presence.New(pub)

	release := tr.Attach("review_1")
	defer release()

	require.True(t, tr.IsPresent("review_1"))
	require.Len(t, pub.events, 1)
	payload := pub.events[0].Payload.(domain.AgentPresenceChangedPayload)
	require.True(t, payload.Connected)
}

func TestSecondAttachDoesNotReemit(t *testing.T) {
	pub := &recordingPublisher{}
	tr := presence.New(pub)

	release1 := tr.Attach("review_1")
	release2 := tr.Attach("review_1")
	defer release1()
	defer release2()

	require.Len(t, pub.events, 1)
}

func TestLastReleaseEmitsConnectedFalse(t *testing.T) {
	pub := &recordingPublisher{}
	tr := presence.New(pub)

	release1 := tr.Attach("review_1")
	release2 := tr.Attach("review_1")
	release1()
	require.True(t, tr.IsPresent("review_1"))

	release2()
	require.False(t, tr.IsPresent("review_1"))
	require.Len(t, pub.events, 2)
	payload := pub.events[1].Payload.(domain.AgentPresenceChangedPayload)
	require.False(t, payload.Connected)
}

func TestReleaseIsIdempotent(t *testing.T) {
	pub := &recordingPublisher{}
	tr := presence.New(pub)

	release := tr.Attach("review_1")
	release()
	release()

	require.Len(t, pub.events, 2)
}

func TestIndependentReviewsTrackSeparately(t *testing.T) {
	pub := &recordingPublisher{}
	tr := presence.New(pub)

	releaseA := tr.Attach("review_a")
	defer releaseA()

	require.True(t, tr.IsPresent("review_a"))
	require.False(t, tr.IsPresent("review_b"))
}
