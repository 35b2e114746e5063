package eventbus

import "github.com/winstanley-industries/preflight/internal/domain"

// Filter restricts which events a subscriber admits or a wait call selects.
// A zero-value Filter matches everything.
type Filter struct {
	ReviewID string // "" matches any review
	Kinds    []domain.EventKind
}

// Matches reports whether e satisfies f. EventDropped markers always match
// any filter: a subscriber must never silently miss the fact that it lost
// events.
func (f Filter) Matches(e domain.Event) bool {
	if e.Kind == domain.EventDropped {
		return true
	}
	if f.ReviewID != "" && e.ReviewID != f.ReviewID {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == e.Kind {
			return true
		}
	}
	return false
}
