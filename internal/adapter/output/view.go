// Package output assembles and renders the supplemental `export` command's
// view of a review: its latest diff and thread state, serialized to JSON
// or Markdown by the json and markdown sub-packages (adapted from the
// teacher's adapter/output/json and adapter/output/markdown writers).
package output

import (
	"time"

	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/domain"
)

// FileView is one file of the latest revision, with its computed diff.
type FileView struct {
	Path    string
	OldPath string
	Status  domain.FileStatus
	Hunks   []diffengine.Hunk
}

// CommentView is one comment within a ThreadView.
type CommentView struct {
	Author    domain.Author
	Body      string
	CreatedAt time.Time
}

// ThreadView is one thread, with its comments inlined so the export is
// self-contained.
type ThreadView struct {
	File        string
	LineStart   int
	LineEnd     int
	Origin      domain.ThreadOrigin
	Status      domain.ThreadStatus
	AgentStatus domain.AgentStatus
	Comments    []CommentView
}

// ReviewView is the full export: a review's identity, its latest
// revision's file diffs, and its threads.
type ReviewView struct {
	ReviewID       string
	Title          string
	Repo           string
	BaseRef        string
	Status         domain.ReviewStatus
	RevisionNumber int
	GeneratedAt    time.Time
	Files          []FileView
	Threads        []ThreadView
}
