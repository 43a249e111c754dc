package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHostLimiterCapsConcurrencyPerHost(t *testing.T) {
	t.Parallel()

	hosts := newHostLimiter(1)
	require.NoError(t, hosts.Acquire(context.Background(), "fbref.com"))

	// Second slot for the same host must block until the first is released.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, hosts.Acquire(ctx, "fbref.com"), context.DeadlineExceeded)

	// A different host is unaffected.
	require.NoError(t, hosts.Acquire(context.Background(), "other.com"))

	hosts.Release("fbref.com")
	require.NoError(t, hosts.Acquire(context.Background(), "fbref.com"))
}

func TestHostLimiterDisabled(t *testing.T) {
	t.Parallel()

	hosts := newHostLimiter(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, hosts.Acquire(context.Background(), "fbref.com"))
	}
	hosts.Release("fbref.com") // no-op, must not panic
}

func TestVisitTrackerClaimsOnce(t *testing.T) {
	t.Parallel()

	visited := newVisitTracker()
	require.True(t, visited.MarkIfNew("https://fbref.com/en/comps/9"))
	require.False(t, visited.MarkIfNew("https://fbref.com/en/comps/9"))
	require.False(t, visited.MarkIfNew(""))
	require.True(t, visited.MarkIfNew("https://fbref.com/en/comps/12"))
}
