package output

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleCase renders a closed-enumeration String() value (file status,
// thread status, agent status, origin) in the title-cased form the export
// command's human-readable Markdown uses, the same way the teacher's
// markdown writer title-cases finding severities.
func TitleCase(s string) string {
	return titleCaser.String(s)
}
