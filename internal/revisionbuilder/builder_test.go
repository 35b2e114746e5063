package revisionbuilder_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/winstanley-industries/preflight/internal/adapter/reposnapshot"
	"github.com/winstanley-industries/preflight/internal/domain"
	"github.com/winstanley-industries/preflight/internal/revisionbuilder"
)

type memContentStore struct {
	blobs map[string][]byte
	puts  int
}

func newMemContentStore() *memContentStore {
	return &memContentStore{blobs: map[string][]byte{}}
}

func (m *memContentStore) Put(_ context.Context, data []byte) (domain.ContentHandle, error) {
	m.puts++
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	m.blobs[hash] = data
	return domain.ContentHandle{Hash: hash}, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func buildForTest(t *testing.T, b *revisionbuilder.Builder, repo, baseRef string) revisionbuilder.Result {
	t.Helper()
	staged, err := b.Stage(context.Background(), repo, baseRef)
	require.NoError(t, err)
	result, err := b.Intern(context.Background(), staged)
	require.NoError(t, err)
	return result
}

func TestBuildClassifiesAddedModifiedDeleted(t *testing.T) {
	fake := reposnapshot.NewFake()
	fake.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "new.go", Status: reposnapshot.StatusAdded, NewContent: []byte("package main\n")},
		{Path: "old.go", Status: reposnapshot.StatusModified, OldContent: []byte("a\n"), NewContent: []byte("b\n")},
		{Path: "gone.go", Status: reposnapshot.StatusDeleted, OldContent: []byte("bye\n")},
	})

	b := revisionbuilder.New(fake, newMemContentStore(), fixedClock(time.Unix(0, 0)))
	result := buildForTest(t, b, "repo", "main")
	require.Len(t, result.Files, 3)

	byPath := map[string]domain.FileEntry{}
	for _, f := range result.Files {
		byPath[f.Path] = f
	}
	require.Equal(t, domain.FileAdded, byPath["new.go"].Status)
	require.True(t, byPath["new.go"].OldContent.IsZero())
	require.False(t, byPath["new.go"].NewContent.IsZero())

	require.Equal(t, domain.FileModified, byPath["old.go"].Status)
	require.Equal(t, domain.FileDeleted, byPath["gone.go"].Status)
	require.True(t, byPath["gone.go"].NewContent.IsZero())
}

func TestBuildDetectsRename(t *testing.T) {
	fake := reposnapshot.NewFake()
	fake.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "new_name.go", OldPath: "old_name.go", OldContent: []byte("x\n"), NewContent: []byte("x\n")},
	})

	b := revisionbuilder.New(fake, newMemContentStore(), fixedClock(time.Unix(0, 0)))
	result := buildForTest(t, b, "repo", "main")
	require.Len(t, result.Files, 1)
	require.Equal(t, domain.FileRenamed, result.Files[0].Status)
	require.Equal(t, "old_name.go", result.Files[0].OldPath)
}

func TestBuildDetectsBinaryByNulByte(t *testing.T) {
	fake := reposnapshot.NewFake()
	fake.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "blob.bin", OldContent: []byte("a\x00b"), NewContent: []byte("a\x00c")},
	})

	b := revisionbuilder.New(fake, newMemContentStore(), fixedClock(time.Unix(0, 0)))
	result := buildForTest(t, b, "repo", "main")
	require.Equal(t, domain.FileBinary, result.Files[0].Status)
	require.True(t, result.Files[0].OldContent.IsZero())
	require.True(t, result.Files[0].NewContent.IsZero())
}

func TestBuildFingerprintIsStableAcrossFileOrder(t *testing.T) {
	fake1 := reposnapshot.NewFake()
	fake1.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "a.go", Status: reposnapshot.StatusAdded, NewContent: []byte("a\n")},
		{Path: "b.go", Status: reposnapshot.StatusAdded, NewContent: []byte("b\n")},
	})
	fake2 := reposnapshot.NewFake()
	fake2.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "b.go", Status: reposnapshot.StatusAdded, NewContent: []byte("b\n")},
		{Path: "a.go", Status: reposnapshot.StatusAdded, NewContent: []byte("a\n")},
	})

	b1 := revisionbuilder.New(fake1, newMemContentStore(), fixedClock(time.Unix(0, 0)))
	b2 := revisionbuilder.New(fake2, newMemContentStore(), fixedClock(time.Unix(0, 0)))

	staged1, err := b1.Stage(context.Background(), "repo", "main")
	require.NoError(t, err)
	staged2, err := b2.Stage(context.Background(), "repo", "main")
	require.NoError(t, err)
	require.Equal(t, staged1.Fingerprint, staged2.Fingerprint)
}

func TestStageFingerprintMatchesInternedResultFingerprint(t *testing.T) {
	fake := reposnapshot.NewFake()
	fake.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "a.go", Status: reposnapshot.StatusAdded, NewContent: []byte("a\n")},
	})

	b := revisionbuilder.New(fake, newMemContentStore(), fixedClock(time.Unix(0, 0)))
	staged, err := b.Stage(context.Background(), "repo", "main")
	require.NoError(t, err)
	result, err := b.Intern(context.Background(), staged)
	require.NoError(t, err)
	require.Equal(t, staged.Fingerprint, result.Fingerprint)
}

func TestStageNeverInternsContent(t *testing.T) {
	fake := reposnapshot.NewFake()
	fake.Set("repo", "main", []reposnapshot.FileChange{
		{Path: "a.go", Status: reposnapshot.StatusAdded, NewContent: []byte("a\n")},
	})

	content := newMemContentStore()
	b := revisionbuilder.New(fake, content, fixedClock(time.Unix(0, 0)))
	_, err := b.Stage(context.Background(), "repo", "main")
	require.NoError(t, err)
	require.Zero(t, content.puts, "Stage must not write to the ContentStore")
}

func TestBuildSnapshotterErrorWrapsRepoUnavailable(t *testing.T) {
	fake := reposnapshot.NewFake()
	fake.Fail("repo", "main", errors.New("transport down"))

	b := revisionbuilder.New(fake, newMemContentStore(), fixedClock(time.Unix(0, 0)))
	_, err := b.Stage(context.Background(), "repo", "main")
	require.Error(t, err)
	require.Equal(t, domain.ErrRepoUnavailable, domain.KindOf(err))
}
