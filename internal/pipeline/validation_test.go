package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fbstats/fbref-crawler/internal/record"
)

func TestValidationPassesCompleteRecords(t *testing.T) {
	t.Parallel()

	stage := NewValidation()
	for _, rec := range []record.Record{
		&record.League{ID: "9", Name: "Premier League", URL: "https://fbref.com/en/comps/9/history/Premier-League-Seasons"},
		&record.Season{ID: "abc123", Year: "2024-2025", URL: "https://fbref.com/en/comps/9/2024-2025"},
		&record.Club{ID: "b8fd03ef", Name: "Manchester City", URL: "https://fbref.com/en/squads/b8fd03ef"},
		&record.Player{ID: "dea698d9", URL: "https://fbref.com/en/players/dea698d9/Kevin"},
		&record.PlayerStats{PlayerID: "dea698d9", Season: "2024-2025", Club: "Manchester City", URL: "https://fbref.com/en/players/dea698d9/Kevin"},
	} {
		_, err := stage.Process(context.Background(), rec)
		require.NoError(t, err, "kind %s", rec.Kind())
	}
}

func TestValidationDropsOnMissingRequiredField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		rec    record.Record
		reason string
	}{
		{
			name:   "player without url",
			rec:    &record.Player{ID: "dea698d9"},
			reason: "missing required field: url",
		},
		{
			name:   "club without name",
			rec:    &record.Club{ID: "b8fd03ef", URL: "https://fbref.com/en/squads/b8fd03ef"},
			reason: "missing required field: name",
		},
		{
			name:   "season without year",
			rec:    &record.Season{ID: "abc123", URL: "https://fbref.com/x"},
			reason: "missing required field: year",
		},
		{
			name:   "league without id",
			rec:    &record.League{Name: "Premier League", URL: "https://fbref.com/x"},
			reason: "missing required field: league_id",
		},
		{
			name:   "stats without season",
			rec:    &record.PlayerStats{PlayerID: "dea698d9", URL: "https://fbref.com/x"},
			reason: "missing required field: season",
		},
	}

	stage := NewValidation()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := stage.Process(context.Background(), tc.rec)
			var drop *DropError
			require.ErrorAs(t, err, &drop)
			require.Equal(t, tc.reason, drop.Reason)
		})
	}
}

func TestValidationDropsBadPlayerURL(t *testing.T) {
	t.Parallel()

	stage := NewValidation()
	_, err := stage.Process(context.Background(), &record.Player{ID: "dea698d9", URL: "ftp://nope"})
	var drop *DropError
	require.ErrorAs(t, err, &drop)
	require.Contains(t, drop.Reason, "invalid url format")
}

func TestValidationKeepsCoercedNumerics(t *testing.T) {
	t.Parallel()

	// A digit-free stat cell has already been coerced to zero by cleaning;
	// the row itself stays valid.
	stage := NewValidation()
	_, err := stage.Process(context.Background(), &record.PlayerStats{
		PlayerID: "dea698d9",
		Season:   "2024-2025",
		Club:     "Manchester City",
		URL:      "https://fbref.com/x",
		GoalsRaw: "n/a",
	})
	require.NoError(t, err)
}
