package diffengine

import "strings"

// CountLines returns the number of lines content splits into under the
// same rule splitLines uses, for callers (Store's line-range validation)
// that need a line count without needing the lines themselves.
func CountLines(content []byte) int {
	return len(splitLines(content))
}

// splitLines splits content into its constituent lines the way spec §4.2
// requires: split on "\n", a trailing "\r" is stripped from each line, and
// the empty element produced by a final trailing newline is dropped so a
// file ending in "\n" reports the same line count as one that doesn't.
// Content round-trips byte-for-byte only when every line uses "\n" alone;
// a file with CRLF endings loses its "\r" on the round trip, which is the
// one documented exception to the round-trip property in spec §8.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	raw := strings.Split(string(content), "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	for i, l := range raw {
		raw[i] = strings.TrimSuffix(l, "\r")
	}
	return raw
}
