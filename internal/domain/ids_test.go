package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/winstanley-industries/preflight/internal/domain"
)

func TestNewIDsAreUniquePerCall(t *testing.T) {
	now := time.Now()
	a := domain.NewReviewID(now, "repo-a")
	b := domain.NewReviewID(now, "repo-a")
	require.NotEqual(t, a, b, "two reviews created at the same instant must still get distinct ids")
	require.Contains(t, a, "review_")
}

func TestNewRevisionIDVariesByNumber(t *testing.T) {
	now := time.Now()
	first := domain.NewRevisionID(now, "review_x", 1)
	second := domain.NewRevisionID(now, "review_x", 2)
	require.NotEqual(t, first, second)
}
