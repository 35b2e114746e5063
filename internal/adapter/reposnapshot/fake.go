package reposnapshot

import "context"

// Fake is an in-memory Snapshotter for tests: callers preload the changes
// a given (repo, baseRef) pair should yield, or force an error.
type Fake struct {
	Changes map[string][]FileChange
	Err     map[string]error
}

// NewFake builds an empty Fake.
func NewFake() *Fake {
	return &Fake{Changes: map[string][]FileChange{}, Err: map[string]error{}}
}

func fakeKey(repo, baseRef string) string { return repo + "@" + baseRef }

// Set registers the changes to return for a given (repo, baseRef) pair.
func (f *Fake) Set(repo, baseRef string, changes []FileChange) {
	f.Changes[fakeKey(repo, baseRef)] = changes
}

// Fail registers an error to return for a given (repo, baseRef) pair.
func (f *Fake) Fail(repo, baseRef string, err error) {
	f.Err[fakeKey(repo, baseRef)] = err
}

// Snapshot implements Snapshotter.
func (f *Fake) Snapshot(ctx context.Context, repo, baseRef string) ([]FileChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := fakeKey(repo, baseRef)
	if err, ok := f.Err[key]; ok {
		return nil, err
	}
	return f.Changes[key], nil
}
