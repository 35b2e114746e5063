package store

import (
	"context"

	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/domain"
	"github.com/winstanley-industries/preflight/internal/threadfsm"
)

// CreateThread validates the target file and line range against the
// review's latest revision, then creates the thread with its required
// first comment (spec §4.1, §3).
func (s *Store) CreateThread(ctx context.Context, reviewID, file string, lineStart, lineEnd int, origin domain.ThreadOrigin, body string, author domain.Author) (domain.Thread, error) {
	if lineStart < 1 || lineEnd < 1 || lineStart > lineEnd {
		return domain.Thread{}, domain.NewError(domain.ErrInvalidArgument, "invalid line range")
	}
	if body == "" && origin != domain.OriginExplanationRequest {
		return domain.Thread{}, domain.NewError(domain.ErrInvalidArgument, "comment body must not be empty")
	}

	s.mu.Lock()
	review, ok := s.reviews[reviewID]
	if !ok {
		s.mu.Unlock()
		return domain.Thread{}, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}
	rev, ok := s.latestRevisionLocked(review)
	if !ok {
		s.mu.Unlock()
		return domain.Thread{}, domain.NewError(domain.ErrFileNotInLatestRevision, "review has no revisions yet")
	}
	entry, ok := rev.FileByPath(file)
	if !ok || entry.Status == domain.FileDeleted {
		s.mu.Unlock()
		return domain.Thread{}, domain.NewError(domain.ErrFileNotInLatestRevision, "file not in latest revision: "+file)
	}
	newHandle := entry.NewContent
	isBinary := entry.Status == domain.FileBinary
	s.mu.Unlock()

	if !isBinary && !newHandle.IsZero() && s.content != nil {
		data, err := s.content.Get(ctx, newHandle)
		if err != nil {
			return domain.Thread{}, err
		}
		if lineEnd > diffengine.CountLines(data) {
			return domain.Thread{}, domain.NewError(domain.ErrInvalidArgument, "line range exceeds file length")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok = s.reviews[reviewID]
	if !ok {
		return domain.Thread{}, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}

	now := s.now()
	thread := domain.Thread{
		ID:        domain.NewThreadID(now, reviewID, file),
		ReviewID:  reviewID,
		File:      file,
		LineStart: lineStart,
		LineEnd:   lineEnd,
		Origin:    origin,
		Status:    domain.ThreadOpenStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	comment := domain.Comment{
		ID:        domain.NewCommentID(now, thread.ID),
		ThreadID:  thread.ID,
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}
	thread.CommentIDs = []string{comment.ID}

	s.threads[thread.ID] = thread
	s.comments[comment.ID] = comment
	if review.ThreadIDs == nil {
		review.ThreadIDs = make(map[string]struct{})
	}
	review.ThreadIDs[thread.ID] = struct{}{}
	s.reviews[reviewID] = review

	s.publish(domain.EventThreadCreated, reviewID, domain.ThreadCreatedPayload{Thread: thread.Clone()})
	return thread.Clone(), nil
}

// AddComment appends a comment to a thread, applying the agent-status
// reset rule of spec §4.4.
func (s *Store) AddComment(ctx context.Context, threadID string, author domain.Author, body string) (domain.Comment, error) {
	if body == "" {
		return domain.Comment{}, domain.NewError(domain.ErrInvalidArgument, "empty comment body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return domain.Comment{}, domain.NewError(domain.ErrNotFound, "thread not found: "+threadID)
	}

	now := s.now()
	comment := domain.Comment{
		ID:        domain.NewCommentID(now, threadID),
		ThreadID:  threadID,
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}
	thread.CommentIDs = append(thread.CommentIDs, comment.ID)
	thread = threadfsm.OnCommentAdded(thread, author, now)

	s.comments[comment.ID] = comment
	s.threads[threadID] = thread

	s.publish(domain.EventCommentAdded, thread.ReviewID, domain.CommentAddedPayload{ThreadID: threadID, Comment: comment})
	return comment, nil
}

// UpdateThreadStatus applies update_thread_status, idempotently.
func (s *Store) UpdateThreadStatus(ctx context.Context, threadID string, status domain.ThreadStatus) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return domain.Thread{}, domain.NewError(domain.ErrNotFound, "thread not found: "+threadID)
	}
	thread = threadfsm.SetThreadStatus(thread, status, s.now())
	s.threads[threadID] = thread

	s.publish(domain.EventThreadStatusChanged, thread.ReviewID, domain.ThreadStatusChangedPayload{ThreadID: threadID, Status: status})
	return thread.Clone(), nil
}

// SetAgentStatus applies set_agent_status, rejecting resolved threads.
func (s *Store) SetAgentStatus(ctx context.Context, threadID string, status domain.AgentStatus) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return domain.Thread{}, domain.NewError(domain.ErrNotFound, "thread not found: "+threadID)
	}
	if !threadfsm.CanSetAgentStatus(thread) {
		return domain.Thread{}, domain.NewError(domain.ErrNotOpen, "thread is resolved")
	}
	thread = threadfsm.SetAgentStatus(thread, status, s.now())
	s.threads[threadID] = thread

	s.publish(domain.EventThreadAcknowledged, thread.ReviewID, domain.ThreadAcknowledgedPayload{ThreadID: threadID, AgentStatus: status})
	return thread.Clone(), nil
}

// PokeThread emits thread_poked without mutating any field. Duplicate
// events from repeated pokes are the caller's responsibility to tolerate
// (rate-limiting is an explicit non-goal).
func (s *Store) PokeThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	thread, ok := s.threads[threadID]
	if !ok {
		s.mu.Unlock()
		return domain.NewError(domain.ErrNotFound, "thread not found: "+threadID)
	}
	if thread.Status != domain.ThreadOpenStatus {
		s.mu.Unlock()
		return domain.NewError(domain.ErrNotOpen, "thread is resolved")
	}
	s.mu.Unlock()

	s.publish(domain.EventThreadPoked, thread.ReviewID, domain.ThreadPokedPayload{ThreadID: threadID})
	return nil
}

// RequestRevision emits revision_requested without touching Store state.
func (s *Store) RequestRevision(ctx context.Context, reviewID string) error {
	s.mu.Lock()
	_, ok := s.reviews[reviewID]
	s.mu.Unlock()
	if !ok {
		return domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}
	s.publish(domain.EventRevisionRequested, reviewID, domain.RevisionRequestedPayload{ReviewID: reviewID})
	return nil
}

// ListThreads returns a review's threads, optionally filtered to one file.
func (s *Store) ListThreads(ctx context.Context, reviewID string, file *string) ([]domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "review not found: "+reviewID)
	}
	out := make([]domain.Thread, 0, len(review.ThreadIDs))
	for id := range review.ThreadIDs {
		t := s.threads[id]
		if file != nil && t.File != *file {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

// GetComments returns a thread's comments in chronological order.
func (s *Store) GetComments(ctx context.Context, threadID string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "thread not found: "+threadID)
	}
	out := make([]domain.Comment, 0, len(thread.CommentIDs))
	for _, id := range thread.CommentIDs {
		out = append(out, s.comments[id])
	}
	return out, nil
}
