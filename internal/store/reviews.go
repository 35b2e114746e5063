package store

import (
	"context"

	"github.com/winstanley-industries/preflight/internal/domain"
)

// CreateReview builds the review and its initial revision (spec §4.1,
// §4.3). Staging (the RepoSnapshotter call and fingerprinting) and interning
// both run without holding the mutation lock; only the commit step below
// does. The NoChanges check runs on the staged file list alone (an empty
// snapshot means the working tree equals the base reference), before any
// content is interned, so such a snapshot never touches the ContentStore.
func (s *Store) CreateReview(ctx context.Context, title, repo, baseRef string) (domain.Review, error) {
	staged, err := s.builder.Stage(ctx, repo, baseRef)
	if err != nil {
		return domain.Review{}, err
	}
	if len(staged.Files) == 0 {
		return domain.Review{}, domain.NewError(domain.ErrNoChanges, "initial snapshot equals base reference")
	}

	result, err := s.builder.Intern(ctx, staged)
	if err != nil {
		return domain.Review{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	review := domain.Review{
		ID:        domain.NewReviewID(now, repo),
		Title:     title,
		Status:    domain.ReviewOpen,
		Repo:      repo,
		BaseRef:   baseRef,
		CreatedAt: now,
		UpdatedAt: now,
		ThreadIDs: make(map[string]struct{}),
	}

	rev := s.commitRevisionLocked(&review, result)
	s.reviews[review.ID] = review

	s.publish(domain.EventReviewCreated, review.ID, domain.ReviewCreatedPayload{Review: review.Clone()})
	s.publish(domain.EventRevisionCreated, review.ID, domain.RevisionCreatedPayload{Revision: rev})

	return review.Clone(), nil
}

// FindOrCreateReview returns the lexicographically-latest open review whose
// repo descriptor matches repo, creating one against baseRef if none
// exists. Because ids embed a sortable timestamp, lexicographic order and
// creation order coincide.
func (s *Store) FindOrCreateReview(ctx context.Context, title, repo, baseRef string) (domain.Review, error) {
	s.mu.Lock()
	var best domain.Review
	found := false
	for _, r := range s.reviews {
		if r.Repo != repo || r.Status != domain.ReviewOpen {
			continue
		}
		if !found || r.ID > best.ID {
			best = r
			found = true
		}
	}
	s.mu.Unlock()

	if found {
		return best.Clone(), nil
	}
	return s.CreateReview(ctx, title, repo, baseRef)
}

// GetReview returns the review by id.
func (s *Store) GetReview(ctx context.Context, id string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, domain.NewError(domain.ErrNotFound, "review not found: "+id)
	}
	return r.Clone(), nil
}

// ListReviews returns every review, ordered by id.
func (s *Store) ListReviews(ctx context.Context) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := sortedReviewIDs(s.reviews)
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.reviews[id].Clone())
	}
	return out, nil
}

// UpdateReviewStatus changes a review's status. Closing a review with
// unresolved threads is permitted; no thread state is touched.
func (s *Store) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, domain.NewError(domain.ErrNotFound, "review not found: "+id)
	}
	review.Status = status
	review.UpdatedAt = s.now()
	s.reviews[id] = review

	s.publish(domain.EventReviewStatusChanged, id, domain.ReviewStatusChangedPayload{ReviewID: id, Status: status})
	return review.Clone(), nil
}

// DeleteReview cascades removal of a review's revisions and threads, then
// releases their content-store references outside the mutation lock.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	s.mu.Lock()
	review, ok := s.reviews[id]
	if !ok {
		s.mu.Unlock()
		return domain.NewError(domain.ErrNotFound, "review not found: "+id)
	}
	hashes := s.cascadeDeleteLocked(review)
	s.mu.Unlock()

	s.publish(domain.EventReviewDeleted, id, domain.ReviewDeletedPayload{ReviewID: id})

	if s.releaser != nil && len(hashes) > 0 {
		return s.releaser.Release(ctx, hashes)
	}
	return nil
}

// DeleteClosedReviews removes every closed review and returns the count
// deleted.
func (s *Store) DeleteClosedReviews(ctx context.Context) (int, error) {
	s.mu.Lock()
	var toDelete []domain.Review
	for _, r := range s.reviews {
		if r.Status == domain.ReviewClosed {
			toDelete = append(toDelete, r)
		}
	}
	var allHashes []string
	for _, r := range toDelete {
		allHashes = append(allHashes, s.cascadeDeleteLocked(r)...)
	}
	s.mu.Unlock()

	for _, r := range toDelete {
		s.publish(domain.EventReviewDeleted, r.ID, domain.ReviewDeletedPayload{ReviewID: r.ID})
	}

	if s.releaser != nil && len(allHashes) > 0 {
		if err := s.releaser.Release(ctx, allHashes); err != nil {
			return len(toDelete), err
		}
	}
	return len(toDelete), nil
}

// cascadeDeleteLocked removes review, its revisions, threads, and comments
// from the graph, returning every content hash it referenced for release.
// Caller must hold s.mu.
func (s *Store) cascadeDeleteLocked(review domain.Review) []string {
	var hashes []string

	for _, revID := range review.RevisionIDs {
		rev, ok := s.revisions[revID]
		if !ok {
			continue
		}
		for _, f := range rev.Files {
			if !f.OldContent.IsZero() {
				hashes = append(hashes, f.OldContent.Hash)
			}
			if !f.NewContent.IsZero() {
				hashes = append(hashes, f.NewContent.Hash)
			}
		}
		delete(s.revisions, revID)
	}

	for threadID := range review.ThreadIDs {
		thread, ok := s.threads[threadID]
		if !ok {
			continue
		}
		for _, commentID := range thread.CommentIDs {
			delete(s.comments, commentID)
		}
		delete(s.threads, threadID)
	}

	delete(s.revByNumber, review.ID)
	delete(s.reviews, review.ID)
	return hashes
}
