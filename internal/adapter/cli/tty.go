package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether w is an interactive terminal. serve uses
// this to choose between its human-friendly startup banner and a
// single-line machine-parseable one for piped or redirected output.
func IsInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
