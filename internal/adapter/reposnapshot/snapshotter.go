// Package reposnapshot provides the RepoSnapshotter capability interface
// (spec §6) and a go-git-backed implementation: the sole component aware of
// the source repository system. RevisionBuilder depends only on the
// Snapshotter interface defined here.
package reposnapshot

import "context"

// FileStatus mirrors domain.FileStatus without importing it: the
// snapshotter reports raw observations, and RevisionBuilder is the one
// place that turns them into the domain's closed classification (spec
// §4.3's status rules are applied by the caller, not by the snapshotter).
type FileStatus int

const (
	StatusAdded FileStatus = iota
	StatusModified
	StatusDeleted
	StatusRenamed
)

// FileChange is one working-tree change relative to a base reference.
type FileChange struct {
	Path       string
	OldPath    string // set when Status == StatusRenamed
	Status     FileStatus
	OldContent []byte // nil if absent
	NewContent []byte // nil if absent
}

// Snapshotter enumerates the working-tree changes of a repo against a base
// reference. Implementations typically wrap a source-repository tool; the
// core makes no assumption about the mechanism.
type Snapshotter interface {
	Snapshot(ctx context.Context, repoDescriptor, baseRef string) ([]FileChange, error)
}
