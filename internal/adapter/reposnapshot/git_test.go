package reposnapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/winstanley-industries/preflight/internal/adapter/reposnapshot"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func defaultSignature() *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(0, 0)}
}

func TestGitSnapshotterDetectsModifiedWorkingTreeFile(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, tmp, "README.md", "line one\n")
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	writeFile(t, tmp, "README.md", "line one\nline two\n")

	snap := reposnapshot.NewGitSnapshotter(tmp)
	changes, err := snap.Snapshot(ctx, "repo", "master")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "README.md", changes[0].Path)
	require.Equal(t, reposnapshot.StatusModified, changes[0].Status)
	require.Equal(t, "line one\n", string(changes[0].OldContent))
	require.Equal(t, "line one\nline two\n", string(changes[0].NewContent))
}

func TestGitSnapshotterDetectsAddedFile(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, tmp, "a.txt", "a\n")
	_, err = wt.Add("a.txt")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	writeFile(t, tmp, "b.txt", "b\n")
	_, err = wt.Add("b.txt")
	require.NoError(t, err)

	snap := reposnapshot.NewGitSnapshotter(tmp)
	changes, err := snap.Snapshot(ctx, "repo", "master")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "b.txt", changes[0].Path)
	require.Equal(t, reposnapshot.StatusAdded, changes[0].Status)
}

func TestGitSnapshotterNoChangesReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, tmp, "a.txt", "a\n")
	_, err = wt.Add("a.txt")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	snap := reposnapshot.NewGitSnapshotter(tmp)
	changes, err := snap.Snapshot(ctx, "repo", "master")
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestGitSnapshotterUnresolvableBaseRefFails(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	writeFile(t, tmp, "a.txt", "a\n")
	_, err = wt.Add("a.txt")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	snap := reposnapshot.NewGitSnapshotter(tmp)
	_, err = snap.Snapshot(ctx, "repo", "does-not-exist")
	require.Error(t, err)
}
