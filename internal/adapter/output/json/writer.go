// Package json renders a review export to a single JSON file, adapted from
// the teacher's adapter/output/json writer.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/winstanley-industries/preflight/internal/adapter/output"
)

// Writer implements the export command's JSON output.
type Writer struct {
	now func() string
}

// NewWriter creates a JSON writer. now supplies the timestamp used in the
// generated filename.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists view to outputDir as a single indented JSON file and
// returns the path written.
func (w *Writer) Write(ctx context.Context, outputDir string, view output.ReviewView) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s-%s.json", view.ReviewID, w.now()))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	return path, nil
}
