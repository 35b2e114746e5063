package reposnapshot

import (
	"context"
	"fmt"
	"io"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitSnapshotter implements Snapshotter backed by go-git, reading the
// working tree directly rather than shelling out to the git binary.
type GitSnapshotter struct {
	repoDir string
}

// NewGitSnapshotter constructs a snapshotter rooted at repoDir.
func NewGitSnapshotter(repoDir string) *GitSnapshotter {
	return &GitSnapshotter{repoDir: repoDir}
}

// Snapshot enumerates the working tree's changes against baseRef. repo is
// unused beyond identifying the caller's intent; the snapshotter is already
// bound to one directory at construction.
func (g *GitSnapshotter) Snapshot(ctx context.Context, repo, baseRef string) ([]FileChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := goGit.PlainOpenWithOptions(g.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(r, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref %q: %w", baseRef, err)
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read base tree: %w", err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	changes := make([]FileChange, 0, len(status))
	for path, s := range status {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Worktree == goGit.Unmodified && s.Staging == goGit.Unmodified {
			continue
		}

		fc := FileChange{Path: path}
		oldContent, hadOld := readTreeFile(baseTree, path)
		newContent, hadNew := readWorktreeFile(wt, path)

		switch {
		case !hadOld && hadNew:
			fc.Status = StatusAdded
			fc.NewContent = newContent
		case hadOld && !hadNew:
			fc.Status = StatusDeleted
			fc.OldContent = oldContent
		default:
			fc.Status = StatusModified
			fc.OldContent = oldContent
			fc.NewContent = newContent
		}

		if oldPath, renamed := renameSource(s); renamed && oldPath != path {
			fc.Status = StatusRenamed
			fc.OldPath = oldPath
			if content, ok := readTreeFile(baseTree, oldPath); ok {
				fc.OldContent = content
			}
		}

		changes = append(changes, fc)
	}

	return changes, nil
}

// renameSource always reports no rename: it does not read the status
// entry, so this snapshotter never emits StatusRenamed, and a moved file
// shows up as a deleted old path plus an added new path.
func renameSource(_ *goGit.FileStatus) (string, bool) {
	return "", false
}

func readTreeFile(tree *object.Tree, path string) ([]byte, bool) {
	f, err := tree.File(path)
	if err != nil {
		return nil, false
	}
	rc, err := f.Reader()
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}

func readWorktreeFile(wt *goGit.Worktree, path string) ([]byte, bool) {
	f, err := wt.Filesystem.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false
	}
	return data, true
}

// resolveCommit tries baseRef as given, then as a local branch, then as a
// remote-tracking branch, mirroring how most callers refer to a base ref
// loosely.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}
