package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	t.Parallel()

	require.Equal(t, "9", (&League{ID: "9"}).Key())
	require.Equal(t, "abc-def", (&Season{ID: "abc-def"}).Key())
	require.Equal(t, "b8fd03ef", (&Club{ID: "b8fd03ef"}).Key())
	require.Equal(t, "dea698d9", (&Player{ID: "dea698d9"}).Key())
}

func TestPlayerStatsCompositeKey(t *testing.T) {
	t.Parallel()

	stats := &PlayerStats{PlayerID: "dea698d9", Season: "2024-2025", Club: "Manchester City"}
	require.Equal(t, "dea698d9/2024-2025/Manchester City", stats.Key())

	// No player id means no key at all, not a partial one.
	require.Empty(t, (&PlayerStats{Season: "2024-2025", Club: "X"}).Key())
}

func TestKindsAreDistinct(t *testing.T) {
	t.Parallel()

	kinds := map[Kind]bool{}
	for _, rec := range []Record{&League{}, &Season{}, &Club{}, &Player{}, &PlayerStats{}} {
		kinds[rec.Kind()] = true
	}
	require.Len(t, kinds, 5)
}
