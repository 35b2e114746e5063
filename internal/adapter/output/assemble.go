package output

import (
	"context"
	"fmt"
	"time"

	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/domain"
)

// ReviewSource is the narrow slice of store.Store the export command reads
// from to assemble a ReviewView.
type ReviewSource interface {
	GetReview(ctx context.Context, id string) (domain.Review, error)
	ListFiles(ctx context.Context, reviewID string, revisionNumber *int) ([]domain.FileEntry, error)
	ListThreads(ctx context.Context, reviewID string, file *string) ([]domain.Thread, error)
	GetComments(ctx context.Context, threadID string) ([]domain.Comment, error)
}

// DiffSource computes the per-file diff the export command renders as
// Markdown hunks or embeds as JSON.
type DiffSource interface {
	Diff(ctx context.Context, entry domain.FileEntry) (diffengine.FileDiff, error)
}

// Assemble builds the export command's view of a review: its latest
// revision's files (with computed diffs) and its threads with comments
// inlined, the self-contained snapshot the supplemental export command
// produces (SPEC_FULL.md §12).
func Assemble(ctx context.Context, reviews ReviewSource, differ DiffSource, reviewID string, now func() time.Time) (ReviewView, error) {
	if now == nil {
		now = time.Now
	}
	review, err := reviews.GetReview(ctx, reviewID)
	if err != nil {
		return ReviewView{}, err
	}

	files, err := reviews.ListFiles(ctx, reviewID, nil)
	if err != nil {
		return ReviewView{}, fmt.Errorf("list files for export: %w", err)
	}

	fileViews := make([]FileView, 0, len(files))
	for _, f := range files {
		diff, err := differ.Diff(ctx, f)
		if err != nil {
			return ReviewView{}, fmt.Errorf("diff %s for export: %w", f.Path, err)
		}
		fileViews = append(fileViews, FileView{
			Path:    f.Path,
			OldPath: f.OldPath,
			Status:  f.Status,
			Hunks:   diff.Hunks,
		})
	}

	threads, err := reviews.ListThreads(ctx, reviewID, nil)
	if err != nil {
		return ReviewView{}, fmt.Errorf("list threads for export: %w", err)
	}

	threadViews := make([]ThreadView, 0, len(threads))
	for _, t := range threads {
		comments, err := reviews.GetComments(ctx, t.ID)
		if err != nil {
			return ReviewView{}, fmt.Errorf("get comments for export: %w", err)
		}
		commentViews := make([]CommentView, 0, len(comments))
		for _, c := range comments {
			commentViews = append(commentViews, CommentView{
				Author:    c.Author,
				Body:      c.Body,
				CreatedAt: c.CreatedAt,
			})
		}
		threadViews = append(threadViews, ThreadView{
			File:        t.File,
			LineStart:   t.LineStart,
			LineEnd:     t.LineEnd,
			Origin:      t.Origin,
			Status:      t.Status,
			AgentStatus: t.AgentStatus,
			Comments:    commentViews,
		})
	}

	return ReviewView{
		ReviewID:       review.ID,
		Title:          review.Title,
		Repo:           review.Repo,
		BaseRef:        review.BaseRef,
		Status:         review.Status,
		RevisionNumber: len(review.RevisionIDs),
		GeneratedAt:    now(),
		Files:          fileViews,
		Threads:        threadViews,
	}, nil
}
