package reposnapshot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winstanley-industries/preflight/internal/adapter/reposnapshot"
)

func TestFakeReturnsRegisteredChanges(t *testing.T) {
	f := reposnapshot.NewFake()
	f.Set("repo-a", "main", []reposnapshot.FileChange{{Path: "x.go", Status: reposnapshot.StatusAdded}})

	changes, err := f.Snapshot(context.Background(), "repo-a", "main")
	require.NoError(t, err)
	require.Len(t, changes, 1)

	changes, err = f.Snapshot(context.Background(), "repo-b", "main")
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestFakeReturnsRegisteredError(t *testing.T) {
	f := reposnapshot.NewFake()
	want := errors.New("transport down")
	f.Fail("repo-a", "main", want)

	_, err := f.Snapshot(context.Background(), "repo-a", "main")
	require.ErrorIs(t, err, want)
}
