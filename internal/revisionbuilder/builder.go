// Package revisionbuilder assembles a new domain.Revision by snapshotting a
// working tree through a RepoSnapshotter and interning its file contents
// into a content store, per spec §4.3.
package revisionbuilder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/winstanley-industries/preflight/internal/adapter/reposnapshot"
	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/domain"
)

// ContentWriter interns raw bytes into the content store, returning a
// handle keyed by content hash. Puts are idempotent: interning the same
// bytes twice returns the same handle.
type ContentWriter interface {
	Put(ctx context.Context, data []byte) (domain.ContentHandle, error)
}

// Builder implements spec §4.3's revision-construction algorithm.
type Builder struct {
	snapshotter reposnapshot.Snapshotter
	content     ContentWriter
	now         func() time.Time
}

// New constructs a Builder. now defaults to time.Now if nil.
func New(snapshotter reposnapshot.Snapshotter, content ContentWriter, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{snapshotter: snapshotter, content: content, now: now}
}

// StagedFile is one file's classified status and raw bytes, hashed but not
// yet interned into the ContentStore.
type StagedFile struct {
	Path       string
	OldPath    string
	Status     domain.FileStatus
	OldContent []byte
	NewContent []byte
	oldHash    string
	newHash    string
}

// Staged is the result of classifying a snapshot's changes and computing
// the revision's content fingerprint, before any bytes are interned. Its
// Fingerprint is comparable against a review's latest revision without
// touching the ContentStore at all, so a caller can decide NoChanges
// without ever calling Intern (spec §4.3 step 3).
type Staged struct {
	Fingerprint string
	Files       []StagedFile
	CreatedAt   time.Time
}

// Result is everything create_revision needs to construct a domain.Revision
// once Intern has committed a Staged snapshot's content.
type Result struct {
	Fingerprint string
	Files       []domain.FileEntry
	CreatedAt   time.Time
}

// Stage requests a snapshot, classifies each change, and computes the
// revision's fingerprint directly from the snapshot's bytes. It performs
// no ContentStore writes: the fingerprint is the same sha256 digest Intern
// would later produce as a handle hash, computed here purely in memory so
// a NoChanges comparison never has to intern (and then release) content it
// turns out not to need.
func (b *Builder) Stage(ctx context.Context, repo, baseRef string) (Staged, error) {
	changes, err := b.snapshotter.Snapshot(ctx, repo, baseRef)
	if err != nil {
		return Staged{}, domain.WrapError(domain.ErrRepoUnavailable, "snapshot repository", err)
	}

	files := make([]StagedFile, 0, len(changes))
	for _, c := range changes {
		files = append(files, classifyAndHash(c))
	}

	return Staged{
		Fingerprint: fingerprint(files),
		Files:       files,
		CreatedAt:   b.now(),
	}, nil
}

// Intern writes a Staged snapshot's file contents into the ContentStore,
// returning the FileEntry list a Revision is built from. Callers must only
// reach this once they have compared Staged.Fingerprint against the
// review's latest revision and confirmed it is not a no-op: every Put here
// bumps a reference count the ContentStore will not reclaim until the
// owning review is deleted (spec §4.7).
func (b *Builder) Intern(ctx context.Context, staged Staged) (Result, error) {
	entries := make([]domain.FileEntry, 0, len(staged.Files))
	for _, f := range staged.Files {
		entry, err := b.internFile(ctx, f)
		if err != nil {
			return Result{}, err
		}
		entries = append(entries, entry)
	}
	return Result{
		Fingerprint: staged.Fingerprint,
		Files:       entries,
		CreatedAt:   staged.CreatedAt,
	}, nil
}

func (b *Builder) internFile(ctx context.Context, f StagedFile) (domain.FileEntry, error) {
	entry := domain.FileEntry{Path: f.Path, OldPath: f.OldPath, Status: f.Status}

	if entry.Status == domain.FileBinary {
		return entry, nil
	}

	if f.oldHash != "" {
		handle, err := b.content.Put(ctx, f.OldContent)
		if err != nil {
			return domain.FileEntry{}, domain.WrapError(domain.ErrInternal, "intern old content for "+f.Path, err)
		}
		entry.OldContent = handle
	}
	if f.newHash != "" {
		handle, err := b.content.Put(ctx, f.NewContent)
		if err != nil {
			return domain.FileEntry{}, domain.WrapError(domain.ErrInternal, "intern new content for "+f.Path, err)
		}
		entry.NewContent = handle
	}
	return entry, nil
}

// classifyAndHash applies spec §4.3's deterministic, ordered status rules
// and computes the content hashes a later Intern call would produce as
// handles, without writing anything to the ContentStore yet.
func classifyAndHash(c reposnapshot.FileChange) StagedFile {
	sf := StagedFile{
		Path:       c.Path,
		OldPath:    c.OldPath,
		Status:     classify(c),
		OldContent: c.OldContent,
		NewContent: c.NewContent,
	}

	if sf.Status == domain.FileBinary {
		return sf
	}

	if len(c.OldContent) > 0 || sf.Status == domain.FileDeleted {
		sf.oldHash = hashBytes(c.OldContent)
	}
	if len(c.NewContent) > 0 || sf.Status == domain.FileAdded {
		sf.newHash = hashBytes(c.NewContent)
	}
	return sf
}

// classify applies spec §4.3's deterministic, ordered status rules, based
// purely on which sides of content are present and whether old_path
// differs from path — the snapshotter's own notion of status is not
// consulted, since a git status character and this classification can
// legitimately disagree (e.g. a copy-then-edit looks identical to a rename
// from content alone).
func classify(c reposnapshot.FileChange) domain.FileStatus {
	hasOld := len(c.OldContent) > 0 || c.Status == reposnapshot.StatusDeleted
	hasNew := len(c.NewContent) > 0 || c.Status == reposnapshot.StatusAdded

	switch {
	case hasNew && !hasOld && c.OldPath == "":
		return domain.FileAdded
	case hasOld && !hasNew:
		return domain.FileDeleted
	case hasOld && hasNew && c.OldPath != "" && c.OldPath != c.Path:
		return domain.FileRenamed
	case diffengine.LooksBinary(c.OldContent) || diffengine.LooksBinary(c.NewContent):
		return domain.FileBinary
	default:
		return domain.FileModified
	}
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fingerprint computes the deterministic content fingerprint of a file
// list: a sorted concatenation of (path, new_content_hash, old_content_hash,
// status), hashed. These hashes are identical to the ContentHandle hashes
// Intern will later mint for the same bytes, so Staged.Fingerprint exactly
// matches the Fingerprint a committed Result would carry.
func fingerprint(files []StagedFile) string {
	sorted := make([]StagedFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := sha256.New()
	for _, f := range sorted {
		fmt.Fprintf(h, "%s|%s|%s|%s\n", f.Path, f.newHash, f.oldHash, f.Status)
	}
	return hex.EncodeToString(h.Sum(nil))
}
