package json_test

import (
	"context"
	stdjson "encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winstanley-industries/preflight/internal/adapter/output"
	"github.com/winstanley-industries/preflight/internal/adapter/output/json"
	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/domain"
)

func TestWriterWritesIndentedJSON(t *testing.T) {
	tempDir := t.TempDir()
	now := func() string { return "20260101T000000Z" }
	writer := json.NewWriter(now)

	view := output.ReviewView{
		ReviewID:       "review_abc",
		Title:          "Add retry logic",
		Repo:           "example/repo",
		BaseRef:        "main",
		Status:         domain.ReviewOpen,
		RevisionNumber: 2,
		GeneratedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Files: []output.FileView{
			{
				Path:   "main.go",
				Status: domain.FileModified,
				Hunks: []diffengine.Hunk{
					{
						OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 1,
						Lines: []diffengine.DiffLine{
							{Kind: diffengine.LineRemoved, Text: "old", OldLine: 1},
							{Kind: diffengine.LineAdded, Text: "new", NewLine: 1},
						},
					},
				},
			},
		},
		Threads: []output.ThreadView{
			{
				File: "main.go", LineStart: 1, LineEnd: 1,
				Origin: domain.OriginComment, Status: domain.ThreadOpenStatus,
				Comments: []output.CommentView{
					{Author: domain.AuthorHuman, Body: "why?", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
				},
			},
		},
	}

	path, err := writer.Write(context.Background(), tempDir, view)
	require.NoError(t, err)

	expectedPath := filepath.Join(tempDir, "review_abc-20260101T000000Z.json")
	assert.Equal(t, expectedPath, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var roundTripped output.ReviewView
	require.NoError(t, stdjson.Unmarshal(content, &roundTripped))
	assert.Equal(t, view.ReviewID, roundTripped.ReviewID)
	assert.Equal(t, view.Title, roundTripped.Title)
	assert.Len(t, roundTripped.Files, 1)
	assert.Len(t, roundTripped.Threads, 1)
}

func TestWriterCreatesMissingOutputDir(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "export")
	writer := json.NewWriter(func() string { return "20260101T000000Z" })

	path, err := writer.Write(context.Background(), tempDir, output.ReviewView{ReviewID: "review_x"})
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
