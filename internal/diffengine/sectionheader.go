package diffengine

import "regexp"

// sectionHeaderPatterns matches lines that look like a function, type, or
// section definition, regardless of source language. DiffEngine has no
// language identity for a file (callers never supply one), so a single
// generic pattern set is used rather than per-language dispatch.
var sectionHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(func|function|def|class|struct|type|interface|impl|trait|module|namespace)\b`),
	regexp.MustCompile(`^\s*(public|private|protected|static|async|export)\b.*[({]\s*$`),
	regexp.MustCompile(`^#{1,6}\s+\S`), // markdown headers
}

func looksLikeSectionHeader(line string) bool {
	for _, p := range sectionHeaderPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// maxSectionHeaderLookback is how far back (in source lines) DiffEngine
// looks for a section header to use as a hunk's context string.
const maxSectionHeaderLookback = 50

// findSectionHeader scans recs backward from startIdx (exclusive) looking
// for the nearest line matching a section-header pattern, within
// maxSectionHeaderLookback lines. Returns "" if none is found.
func findSectionHeader(recs []lineRec, startIdx int) string {
	limit := startIdx - maxSectionHeaderLookback
	if limit < 0 {
		limit = 0
	}
	for i := startIdx - 1; i >= limit; i-- {
		if looksLikeSectionHeader(recs[i].text) {
			return recs[i].text
		}
	}
	return ""
}
