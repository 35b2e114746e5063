package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq uint64

// newID mints an opaque, roughly time-ordered identifier, following the
// same shape the teacher's run-id generator used: a UTC timestamp for
// sortability plus a short hash for uniqueness under concurrent callers.
// A process-wide sequence number is folded in so two ids minted within the
// same clock tick (or with a caller-supplied timestamp held constant, as
// in tests) never collide.
func newID(prefix string, t time.Time, seed string) string {
	ts := t.UTC().Format("20060102T150405.000000000Z")
	seq := atomic.AddUint64(&idSeq, 1)
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%d", prefix, seed, ts, t.UnixNano(), seq)))
	return fmt.Sprintf("%s_%s_%s", prefix, ts, hex.EncodeToString(hash[:4]))
}

// NewReviewID mints an id for a new Review.
func NewReviewID(t time.Time, repo string) string {
	return newID("review", t, repo)
}

// NewRevisionID mints an id for a new Revision.
func NewRevisionID(t time.Time, reviewID string, number int) string {
	return newID("rev", t, fmt.Sprintf("%s:%d", reviewID, number))
}

// NewThreadID mints an id for a new Thread.
func NewThreadID(t time.Time, reviewID, file string) string {
	return newID("thread", t, fmt.Sprintf("%s:%s", reviewID, file))
}

// NewCommentID mints an id for a new Comment.
func NewCommentID(t time.Time, threadID string) string {
	return newID("comment", t, threadID)
}
