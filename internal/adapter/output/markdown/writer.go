// Package markdown renders a review export to a human-readable Markdown
// file, adapted from the teacher's adapter/output/markdown writer.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/winstanley-industries/preflight/internal/adapter/output"
	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/domain"
)

type clock func() string

// Writer renders a review export into a Markdown file.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists view to outputDir as a Markdown file and returns the path
// written.
func (w *Writer) Write(ctx context.Context, outputDir string, view output.ReviewView) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.md", sanitise(view.ReviewID), w.now())
	path := filepath.Join(outputDir, filename)

	content := buildContent(view)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return path, nil
}

func buildContent(view output.ReviewView) string {
	var b strings.Builder
	b.WriteString("# Review Export\n\n")
	fmt.Fprintf(&b, "- Review: %s (%s)\n", view.Title, view.ReviewID)
	fmt.Fprintf(&b, "- Repo: %s\n", view.Repo)
	fmt.Fprintf(&b, "- Base: %s\n", view.BaseRef)
	fmt.Fprintf(&b, "- Status: %s\n", output.TitleCase(view.Status.String()))
	fmt.Fprintf(&b, "- Revision: %d\n\n", view.RevisionNumber)

	b.WriteString("## Files\n\n")
	if len(view.Files) == 0 {
		b.WriteString("No files changed.\n\n")
	}
	for _, f := range view.Files {
		fmt.Fprintf(&b, "### %s (%s)\n\n", f.Path, output.TitleCase(f.Status.String()))
		if f.OldPath != "" {
			fmt.Fprintf(&b, "Renamed from `%s`.\n\n", f.OldPath)
		}
		for _, h := range f.Hunks {
			fmt.Fprintf(&b, "```diff\n@@ -%d,%d +%d,%d @@ %s\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount, h.Header)
			for _, l := range h.Lines {
				var prefix string
				switch l.Kind {
				case diffengine.LineAdded:
					prefix = "+"
				case diffengine.LineRemoved:
					prefix = "-"
				default:
					prefix = " "
				}
				b.WriteString(prefix + l.Text + "\n")
			}
			b.WriteString("```\n\n")
		}
	}

	b.WriteString("## Threads\n\n")
	if len(view.Threads) == 0 {
		b.WriteString("No threads.\n")
		return b.String()
	}
	for _, t := range view.Threads {
		fmt.Fprintf(&b, "### %s:%d-%d (%s, %s)\n\n", t.File, t.LineStart, t.LineEnd,
			output.TitleCase(t.Status.String()), output.TitleCase(t.Origin.String()))
		if t.Status == domain.ThreadOpenStatus {
			fmt.Fprintf(&b, "Agent status: %s\n\n", output.TitleCase(t.AgentStatus.String()))
		}
		for _, c := range t.Comments {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", output.TitleCase(c.Author.String()), c.CreatedAt.Format("2006-01-02 15:04:05"), c.Body)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
