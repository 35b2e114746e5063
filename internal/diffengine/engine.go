package diffengine

import (
	"context"

	"github.com/winstanley-industries/preflight/internal/domain"
)

const (
	defaultContextLines = 3
	defaultMergeGap     = 6
)

// ContentReader resolves a ContentHandle minted by the content store back
// into raw bytes. DiffEngine depends on this narrow interface rather than
// the concrete content store so the two packages never import each other.
type ContentReader interface {
	Get(ctx context.Context, handle domain.ContentHandle) ([]byte, error)
}

// ReviewReader is the read-only slice of the review graph DiffEngine needs
// to compute an interdiff: looking a revision up by number within a review.
type ReviewReader interface {
	GetRevision(ctx context.Context, reviewID string, number int) (domain.Revision, error)
}

// Engine computes diffs and interdiffs against a content store and
// (for interdiffs) a review graph.
type Engine struct {
	content ContentReader
	reviews ReviewReader
	limits  Limits
}

// NewEngine builds an Engine. reviews may be nil if the caller never calls
// Interdiff (e.g. a standalone content-level diff tool).
func NewEngine(content ContentReader, reviews ReviewReader, limits Limits) *Engine {
	return &Engine{content: content, reviews: reviews, limits: limits}
}

// Diff computes the structurally-aligned diff of one file entry.
func (e *Engine) Diff(ctx context.Context, entry domain.FileEntry) (FileDiff, error) {
	oldContent, err := e.readSide(ctx, entry.OldContent)
	if err != nil {
		return FileDiff{}, err
	}
	newContent, err := e.readSide(ctx, entry.NewContent)
	if err != nil {
		return FileDiff{}, err
	}
	return ComputeFileDiff(entry.Path, entry.OldPath, entry.Status, oldContent, newContent, e.limits)
}

// Interdiff computes the diff between a file's state at revision `from` and
// its state at revision `to`, within the same review — "what changed
// between two revisions" rather than "what changed in one revision".
func (e *Engine) Interdiff(ctx context.Context, reviewID, path string, from, to int) (FileDiff, error) {
	if e.reviews == nil {
		return FileDiff{}, domain.NewError(domain.ErrInternal, "interdiff requested without a review reader")
	}
	fromRev, err := e.reviews.GetRevision(ctx, reviewID, from)
	if err != nil {
		return FileDiff{}, err
	}
	toRev, err := e.reviews.GetRevision(ctx, reviewID, to)
	if err != nil {
		return FileDiff{}, err
	}

	fromEntry, fromOK := fromRev.FileByPath(path)
	toEntry, toOK := toRev.FileByPath(path)
	if !fromOK && !toOK {
		return FileDiff{}, domain.NewError(domain.ErrFileNotInLatestRevision, "file not present in either revision: "+path)
	}

	var oldContent []byte
	if fromOK {
		oldContent, err = e.readSide(ctx, fromEntry.NewContent)
		if err != nil {
			return FileDiff{}, err
		}
	}
	var newContent []byte
	if toOK {
		newContent, err = e.readSide(ctx, toEntry.NewContent)
		if err != nil {
			return FileDiff{}, err
		}
	}

	status := interdiffStatus(fromOK, toOK)
	oldPath := path
	if !fromOK {
		oldPath = ""
	}
	return ComputeFileDiff(path, oldPath, status, oldContent, newContent, e.limits)
}

func interdiffStatus(fromOK, toOK bool) domain.FileStatus {
	switch {
	case !fromOK:
		return domain.FileAdded
	case !toOK:
		return domain.FileDeleted
	default:
		return domain.FileModified
	}
}

// FileContent returns one side of a file entry, numbered for display.
func (e *Engine) FileContent(ctx context.Context, entry domain.FileEntry, side Side) (FileContent, error) {
	handle := entry.OldContent
	if side == SideNew {
		handle = entry.NewContent
	}
	raw, err := e.readSide(ctx, handle)
	if err != nil {
		return FileContent{}, err
	}
	return BuildFileContent(entry.Path, side, raw), nil
}

func (e *Engine) readSide(ctx context.Context, handle domain.ContentHandle) ([]byte, error) {
	if handle.IsZero() {
		return nil, nil
	}
	if e.content == nil {
		return nil, domain.NewError(domain.ErrInternal, "diff engine has no content reader configured")
	}
	return e.content.Get(ctx, handle)
}

// ComputeFileDiff is the pure, dependency-free core of Diff: given both
// sides' raw bytes, it classifies binary content, runs the LCS algorithm,
// and assembles hunks.
func ComputeFileDiff(path, oldPath string, status domain.FileStatus, oldContent, newContent []byte, limits Limits) (FileDiff, error) {
	fd := FileDiff{Path: path, OldPath: oldPath, Status: status}

	if status == domain.FileBinary || isBinaryInput(oldContent, newContent, limits) {
		fd.Status = domain.FileBinary
		return fd, nil
	}

	a := splitLines(oldContent)
	b := splitLines(newContent)
	recs := buildLineRecords(a, b)
	fd.Hunks = buildHunks(recs, defaultContextLines, defaultMergeGap)

	// A file pair with no line differences yields zero hunks, not an error:
	// interdiff(a, a, p) and interdiff of an unchanged file between two
	// revisions must both produce an empty hunk list (spec §4.2, §8).
	return fd, nil
}

// BuildFileContent numbers one side of a file's raw bytes for display.
func BuildFileContent(path string, side Side, content []byte) FileContent {
	lines := splitLines(content)
	fc := FileContent{Path: path, Side: side}
	for i, l := range lines {
		fc.Lines = append(fc.Lines, NumberedLine{Number: i + 1, Text: l})
	}
	return fc
}
