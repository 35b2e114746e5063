// Package diffengine produces structurally-aligned diffs and interdiffs:
// a line-oriented LCS diff, hunk assembly with a bounded context window,
// binary-file detection, and file-status-aware formatting of the result.
package diffengine

import "github.com/winstanley-industries/preflight/internal/domain"

// LineKind is the kind of a line within a Hunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

func (k LineKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "context"
	}
}

// HighlightToken is a structural placeholder for a pre-rendered
// syntax-highlighting token. Rendering itself is out of scope for this
// core (see spec §1); DiffEngine never populates Tokens, it only reserves
// the slot for an external renderer.
type HighlightToken struct {
	Text  string
	Class string
}

// DiffLine is a single line within a Hunk.
type DiffLine struct {
	Kind    LineKind
	Text    string
	OldLine int // 0 if absent (Added lines have no old-side number)
	NewLine int // 0 if absent (Removed lines have no new-side number)
	Tokens  []HighlightToken
}

// Hunk is a contiguous group of changed lines with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Header   string // nearest preceding section header, "" if none found
	Lines    []DiffLine
}

// FileDiff is the structurally-aligned diff of one file.
type FileDiff struct {
	Path    string
	OldPath string
	Status  domain.FileStatus
	Hunks   []Hunk
}

// Side selects which half of a FileEntry's content to read.
type Side int

const (
	SideOld Side = iota
	SideNew
)

// NumberedLine is a single line of a file's content, numbered on its own
// side, with an optional highlighting token slot.
type NumberedLine struct {
	Number int
	Text   string
	Tokens []HighlightToken
}

// FileContent is a file's content on one side, numbered and ready for
// display.
type FileContent struct {
	Path  string
	Side  Side
	Lines []NumberedLine
}

// Limits bounds the algorithmic diff contract of spec §4.2: inputs larger
// than either limit (or containing a NUL byte) are rendered as a synthetic
// binary diff instead of being run through the LCS algorithm.
type Limits struct {
	MaxLines int
	MaxBytes int
}

// DefaultLimits returns the spec's default bounds: 100,000 lines / 5 MiB.
func DefaultLimits() Limits {
	return Limits{MaxLines: 100_000, MaxBytes: 5 * 1024 * 1024}
}
