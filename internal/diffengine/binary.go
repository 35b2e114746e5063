package diffengine

import "bytes"

// looksBinary reports whether data should be treated as binary content: it
// contains a NUL byte, which text source files never do.
func looksBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}

// LooksBinary is the exported form of looksBinary, used by RevisionBuilder
// to apply the same NUL-byte detection rule when classifying a FileEntry's
// status (spec §4.3), independent of DiffEngine's size-limit fallback.
func LooksBinary(data []byte) bool {
	return looksBinary(data)
}

// exceedsLimits reports whether data is too large for the LCS algorithm to
// run on under the configured bounds.
func exceedsLimits(data []byte, limits Limits) bool {
	if limits.MaxBytes > 0 && len(data) > limits.MaxBytes {
		return true
	}
	if limits.MaxLines > 0 {
		lines := bytes.Count(data, []byte("\n"))
		if len(data) > 0 && data[len(data)-1] != '\n' {
			lines++
		}
		if lines > limits.MaxLines {
			return true
		}
	}
	return false
}

// isBinaryInput reports whether either side of a diff should be treated as
// binary under the spec §4.2 algorithmic contract.
func isBinaryInput(oldContent, newContent []byte, limits Limits) bool {
	return looksBinary(oldContent) || looksBinary(newContent) ||
		exceedsLimits(oldContent, limits) || exceedsLimits(newContent, limits)
}
