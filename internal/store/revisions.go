package store

import (
	"context"

	"github.com/winstanley-industries/preflight/internal/domain"
	"github.com/winstanley-industries/preflight/internal/revisionbuilder"
)

// commitRevisionLocked assigns the next revision number, stores the
// revision, updates the review's revision list and index, and returns the
// new revision. Caller must hold s.mu and have already validated the
// result is not a no-op.
func (s *Store) commitRevisionLocked(review *domain.Review, result revisionbuilder.Result) domain.Revision {
	number := len(review.RevisionIDs) + 1
	rev := domain.Revision{
		ID:          domain.NewRevisionID(result.CreatedAt, review.ID, number),
		ReviewID:    review.ID,
		Number:      number,
		Message:     "",
		CreatedAt:   result.CreatedAt,
		Fingerprint: result.Fingerprint,
		Files:       result.Files,
	}

	s.revisions[rev.ID] = rev
	review.RevisionIDs = append(review.RevisionIDs, rev.ID)
	review.UpdatedAt = result.CreatedAt

	if s.revByNumber[review.ID] == nil {
		s.revByNumber[review.ID] = make(map[int]string)
	}
	s.revByNumber[review.ID][number] = rev.ID

	return rev
}

// CreateRevision delegates to RevisionBuilder and, if the resulting
// fingerprint differs from the review's latest revision, commits a new
// revision. The snapshot is staged and fingerprinted without holding the
// mutation lock and without touching the ContentStore; content is only
// interned once a NoChanges comparison against the fingerprint has already
// ruled that out, so a no-op poll (the common agent workflow) never bumps
// a reference count it would have to immediately release (spec §4.3,
// §4.7).
func (s *Store) CreateRevision(ctx context.Context, reviewID string, trigger domain.Trigger, message string) (domain.Revision, error) {
	s.mu.Lock()
	review, ok := s.reviews[reviewID]
	if !ok {
		s.mu.Unlock()
		return domain.Revision{}, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}
	repo, baseRef := review.Repo, review.BaseRef
	s.mu.Unlock()

	staged, err := s.builder.Stage(ctx, repo, baseRef)
	if err != nil {
		return domain.Revision{}, err
	}

	s.mu.Lock()
	review, ok = s.reviews[reviewID]
	if !ok {
		s.mu.Unlock()
		return domain.Revision{}, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}
	if prior, ok := s.latestRevisionLocked(review); ok && prior.Fingerprint == staged.Fingerprint {
		s.mu.Unlock()
		return domain.Revision{}, domain.NewError(domain.ErrNoChanges, "working tree matches the latest revision")
	}
	s.mu.Unlock()

	result, err := s.builder.Intern(ctx, staged)
	if err != nil {
		return domain.Revision{}, err
	}

	s.mu.Lock()
	review, ok = s.reviews[reviewID]
	if !ok {
		s.mu.Unlock()
		return domain.Revision{}, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}

	// Re-check against the latest revision once more: a concurrent
	// CreateRevision call may have already committed this same fingerprint
	// between the check above and this lock's re-acquisition. Release what
	// was just interned rather than leaving it as an orphaned reference.
	if prior, ok := s.latestRevisionLocked(review); ok && prior.Fingerprint == staged.Fingerprint {
		s.mu.Unlock()
		if s.releaser != nil {
			if hashes := fileEntryHashes(result.Files); len(hashes) > 0 {
				_ = s.releaser.Release(ctx, hashes)
			}
		}
		return domain.Revision{}, domain.NewError(domain.ErrNoChanges, "working tree matches the latest revision")
	}

	rev := s.commitRevisionLocked(&review, result)
	rev.Trigger = trigger
	rev.Message = message
	s.revisions[rev.ID] = rev
	s.reviews[reviewID] = review

	s.publish(domain.EventRevisionCreated, reviewID, domain.RevisionCreatedPayload{Revision: rev})
	s.mu.Unlock()
	return rev, nil
}

// fileEntryHashes collects every content hash referenced by files, used to
// release content interned for a revision that turned out not to commit.
func fileEntryHashes(files []domain.FileEntry) []string {
	var hashes []string
	for _, f := range files {
		if !f.OldContent.IsZero() {
			hashes = append(hashes, f.OldContent.Hash)
		}
		if !f.NewContent.IsZero() {
			hashes = append(hashes, f.NewContent.Hash)
		}
	}
	return hashes
}

// GetRevision returns revision number n within reviewID. It satisfies
// diffengine.ReviewReader.
func (s *Store) GetRevision(ctx context.Context, reviewID string, number int) (domain.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revID, ok := s.revByNumber[reviewID][number]
	if !ok {
		return domain.Revision{}, domain.NewError(domain.ErrNotFound, "revision not found")
	}
	return s.revisions[revID], nil
}

// ListRevisions returns every revision of reviewID, ordered 1..N.
func (s *Store) ListRevisions(ctx context.Context, reviewID string) ([]domain.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}
	out := make([]domain.Revision, 0, len(review.RevisionIDs))
	for _, id := range review.RevisionIDs {
		out = append(out, s.revisions[id])
	}
	return out, nil
}

// ListFiles returns the file entries of a revision (the latest, if
// revisionNumber is nil).
func (s *Store) ListFiles(ctx context.Context, reviewID string, revisionNumber *int) ([]domain.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}

	var rev domain.Revision
	if revisionNumber == nil {
		rev, ok = s.latestRevisionLocked(review)
		if !ok {
			return nil, nil
		}
	} else {
		revID, found := s.revByNumber[reviewID][*revisionNumber]
		if !found {
			return nil, domain.NewError(domain.ErrNotFound, "revision not found")
		}
		rev = s.revisions[revID]
	}
	return rev.Files, nil
}
