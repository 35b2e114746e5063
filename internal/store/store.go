// Package store is the single source of truth for review state (spec
// §4.1): an in-memory graph of reviews, revisions, threads, and comments,
// with every mutation serialized against one lock and published to the
// event bus before the call returns.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/winstanley-industries/preflight/internal/domain"
	"github.com/winstanley-industries/preflight/internal/eventbus"
	"github.com/winstanley-industries/preflight/internal/revisionbuilder"
	"github.com/winstanley-industries/preflight/internal/threadfsm"
)

// ContentReader resolves a content handle to bytes, used only for the
// line-range validation in create_thread. It is the same shape as
// diffengine.ContentReader, declared here so the Store depends only on this
// one method of the content store.
type ContentReader interface {
	Get(ctx context.Context, handle domain.ContentHandle) ([]byte, error)
}

// ContentReleaser decrements reference counts on review deletion.
type ContentReleaser interface {
	Release(ctx context.Context, hashes []string) error
}

// RevisionBuilder is the narrow slice of revisionbuilder.Builder the Store
// depends on. Stage classifies and fingerprints a snapshot without writing
// to the ContentStore; Intern commits a Staged snapshot's content once the
// caller has confirmed it is not a NoChanges no-op (spec §4.3 step 3).
type RevisionBuilder interface {
	Stage(ctx context.Context, repo, baseRef string) (revisionbuilder.Staged, error)
	Intern(ctx context.Context, staged revisionbuilder.Staged) (revisionbuilder.Result, error)
}

// EventPublisher is the narrow slice of eventbus.Bus the Store depends on.
type EventPublisher interface {
	Publish(e domain.Event)
}

// Store implements spec §4.1. The zero value is not usable; construct with
// New.
type Store struct {
	builder  RevisionBuilder
	content  ContentReader
	releaser ContentReleaser
	bus      EventPublisher
	now      func() time.Time

	mu        sync.Mutex
	reviews   map[string]domain.Review
	revisions map[string]domain.Revision
	threads   map[string]domain.Thread
	comments  map[string]domain.Comment

	// revByNumber[reviewID][n] = revisionID, kept alongside Review.RevisionIDs
	// for O(1) revision lookup by number.
	revByNumber map[string]map[int]string
}

// New constructs an empty Store. now defaults to time.Now if nil.
func New(builder RevisionBuilder, content ContentReader, releaser ContentReleaser, bus EventPublisher, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		builder:     builder,
		content:     content,
		releaser:    releaser,
		bus:         bus,
		now:         now,
		reviews:     make(map[string]domain.Review),
		revisions:   make(map[string]domain.Revision),
		threads:     make(map[string]domain.Thread),
		comments:    make(map[string]domain.Comment),
		revByNumber: make(map[string]map[int]string),
	}
}

func (s *Store) publish(kind domain.EventKind, reviewID string, payload interface{}) {
	s.bus.Publish(domain.Event{
		Kind:      kind,
		ReviewID:  reviewID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

// latestRevisionLocked returns the review's latest Revision. Caller must
// hold s.mu. Returns false if the review has no revisions yet.
func (s *Store) latestRevisionLocked(review domain.Review) (domain.Revision, bool) {
	id := review.LatestRevisionID()
	if id == "" {
		return domain.Revision{}, false
	}
	rev, ok := s.revisions[id]
	return rev, ok
}

func sortedReviewIDs(reviews map[string]domain.Review) []string {
	ids := make([]string, 0, len(reviews))
	for id := range reviews {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot is a point-in-time copy of the Store's full graph, serialized by
// internal/persistence into the on-disk snapshot file (spec §6).
type Snapshot struct {
	Reviews   map[string]domain.Review
	Revisions map[string]domain.Revision
	Threads   map[string]domain.Thread
	Comments  map[string]domain.Comment
}

// Snapshot returns a deep-enough copy of the Store's graph, safe for a
// caller to serialize without holding s.mu.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Reviews:   make(map[string]domain.Review, len(s.reviews)),
		Revisions: make(map[string]domain.Revision, len(s.revisions)),
		Threads:   make(map[string]domain.Thread, len(s.threads)),
		Comments:  make(map[string]domain.Comment, len(s.comments)),
	}
	for id, r := range s.reviews {
		snap.Reviews[id] = r.Clone()
	}
	for id, r := range s.revisions {
		snap.Revisions[id] = r
	}
	for id, t := range s.threads {
		snap.Threads[id] = t.Clone()
	}
	for id, c := range s.comments {
		snap.Comments[id] = c
	}
	return snap
}

// Restore replaces the Store's graph with snap, rebuilding the
// revision-by-number index. It is only valid to call before the Store has
// served any mutation, and it never publishes events: restoring from disk
// is not itself a state change subscribers should observe.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Reviews == nil {
		snap.Reviews = make(map[string]domain.Review)
	}
	if snap.Revisions == nil {
		snap.Revisions = make(map[string]domain.Revision)
	}
	if snap.Threads == nil {
		snap.Threads = make(map[string]domain.Thread)
	}
	if snap.Comments == nil {
		snap.Comments = make(map[string]domain.Comment)
	}

	s.reviews = snap.Reviews
	s.revisions = snap.Revisions
	s.threads = snap.Threads
	s.comments = snap.Comments

	s.revByNumber = make(map[string]map[int]string, len(s.reviews))
	for reviewID, review := range s.reviews {
		for _, revID := range review.RevisionIDs {
			rev, ok := s.revisions[revID]
			if !ok {
				continue
			}
			if s.revByNumber[reviewID] == nil {
				s.revByNumber[reviewID] = make(map[int]string)
			}
			s.revByNumber[reviewID][rev.Number] = revID
		}
	}
}
