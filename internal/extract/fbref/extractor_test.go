package fbref

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fbstats/fbref-crawler/internal/crawler"
	"github.com/fbstats/fbref-crawler/internal/pipeline"
	"github.com/fbstats/fbref-crawler/internal/record"
)

const historyHTML = `<html><body>
<h1>Premier League Seasons</h1>
<table id="seasons">
  <tbody>
    <tr>
      <th data-stat="year_id"><a href="/en/comps/9/2024-2025/2024-2025-Premier-League-Stats">2024-2025</a></th>
      <td data-stat="tier">1st</td>
    </tr>
    <tr>
      <th data-stat="year_id"><a href="/en/comps/9/2023-2024/2023-2024-Premier-League-Stats">2023-2024</a></th>
      <td data-stat="tier">1st</td>
    </tr>
    <tr>
      <th data-stat="year_id"><a>2022-2023</a></th>
      <td data-stat="tier">1st</td>
    </tr>
    <tr>
      <th data-stat="year_id">no link here</th>
    </tr>
  </tbody>
</table>
</body></html>`

const seasonHTML = `<html><body>
<table class="stats_table">
  <tbody>
    <tr><td data-stat="team"><a href="/en/squads/b8fd03ef/Manchester-City-Stats">Manchester City</a></td></tr>
    <tr><td data-stat="team"><a href="/en/squads/18bb7c10/Arsenal-Stats">Arsenal</a></td></tr>
    <tr><td data-stat="team"><a href="/en/squads/b8fd03ef/Manchester-City-Stats">Manchester City</a></td></tr>
  </tbody>
</table>
</body></html>`

const squadHTML = `<html><body>
<h1>Manchester City</h1>
<table class="stats_table">
  <tbody>
    <tr>
      <th data-stat="player"><a href="/en/players/dea698d9/Kevin-De-Bruyne">Kevin De Bruyne</a></th>
      <td data-stat="nationality">be BEL</td>
      <td data-stat="position">MF</td>
      <td data-stat="birth_date">1991-06-28</td>
      <td data-stat="games">28</td>
      <td data-stat="goals">4</td>
      <td data-stat="assists">18</td>
      <td data-stat="cards_yellow">2</td>
      <td data-stat="cards_red">0</td>
      <td data-stat="minutes">2,320</td>
    </tr>
    <tr>
      <th data-stat="player">Squad Total</th>
    </tr>
  </tbody>
</table>
</body></html>`

func TestExtractSeasonsHistoryPage(t *testing.T) {
	t.Parallel()

	e := New()
	historyURL := SeasonsHistoryURL(Leagues[0])
	out, err := e.Extract(crawler.FetchResult{
		Target: crawler.FetchTarget{
			URL:      historyURL,
			Metadata: map[string]any{"league": "Premier-League", "league_id": "9"},
		},
		URL:       historyURL,
		Body:      []byte(historyHTML),
		FetchedAt: time.Now(),
	})
	require.NoError(t, err)

	// One league plus one season per year row; the yearless row is skipped
	// and the row without an href gets its URL rebuilt from the competition.
	require.Len(t, out.Records, 4)
	league, ok := out.Records[0].(*record.League)
	require.True(t, ok)
	require.Equal(t, "9", league.IDRaw)
	require.Equal(t, "Premier League Seasons", league.Name)
	require.Equal(t, []string{"2024-2025", "2023-2024", "2022-2023"}, league.Seasons)

	season, ok := out.Records[1].(*record.Season)
	require.True(t, ok)
	require.Equal(t, "2024-2025", season.Year)
	require.Equal(t, "https://fbref.com/en/comps/9/2024-2025/2024-2025-Premier-League-Stats", season.URL)
	require.Equal(t, "9-2024-2025", season.IDRaw)

	rebuilt, ok := out.Records[3].(*record.Season)
	require.True(t, ok)
	require.Equal(t, "2022-2023", rebuilt.Year)
	require.Equal(t, "https://fbref.com/en/comps/9/2022-2023/2022-2023-Premier-League-Stats", rebuilt.URL)

	require.Len(t, out.Targets, 3)
	require.Equal(t, season.URL, out.Targets[0].URL)
	require.Equal(t, "2024-2025", out.Targets[0].Metadata["season"])
	require.Equal(t, "Premier-League", out.Targets[0].Metadata["league"])
}

func TestExtractSeasonClubsPage(t *testing.T) {
	t.Parallel()

	e := New()
	seasonURL := "https://fbref.com/en/comps/9/2024-2025/2024-2025-Premier-League-Stats"
	out, err := e.Extract(crawler.FetchResult{
		Target: crawler.FetchTarget{
			URL: seasonURL,
			Metadata: map[string]any{
				"league": "Premier-League", "league_id": "9", "season": "2024-2025",
			},
		},
		URL:  seasonURL,
		Body: []byte(seasonHTML),
	})
	require.NoError(t, err)

	// The duplicate Manchester City link collapses to one club, and the
	// season is re-emitted carrying the club list.
	require.Len(t, out.Records, 3)
	club, ok := out.Records[0].(*record.Club)
	require.True(t, ok)
	require.Equal(t, "Manchester City", club.Name)
	require.Equal(t, "https://fbref.com/en/squads/b8fd03ef/Manchester-City-Stats", club.URL)
	require.Equal(t, "2024-2025", club.Season)
	require.Equal(t, "Premier-League", club.League)

	season, ok := out.Records[2].(*record.Season)
	require.True(t, ok)
	require.Equal(t, "9-2024-2025", season.IDRaw)
	require.Equal(t, []string{"Manchester City", "Arsenal"}, season.Clubs)

	require.Len(t, out.Targets, 2)
	require.Equal(t, club.URL, out.Targets[0].URL)
	require.Equal(t, "Manchester City", out.Targets[0].Metadata["club"])
}

func TestExtractedSeasonsCleanToDistinctKeys(t *testing.T) {
	t.Parallel()

	e := New()
	historyURL := SeasonsHistoryURL(Leagues[0])
	out, err := e.Extract(crawler.FetchResult{
		Target: crawler.FetchTarget{
			URL:      historyURL,
			Metadata: map[string]any{"league": "Premier-League", "league_id": "9"},
		},
		URL:  historyURL,
		Body: []byte(historyHTML),
	})
	require.NoError(t, err)

	// Every season of one league must keep its own natural key after
	// cleaning; in particular none may collapse onto the league's key.
	cleaning := pipeline.NewCleaning()
	keys := make(map[string]bool)
	for _, rec := range out.Records {
		season, ok := rec.(*record.Season)
		if !ok {
			continue
		}
		cleaned, err := cleaning.Process(context.Background(), season)
		require.NoError(t, err)
		key := cleaned.Key()
		require.NotEmpty(t, key)
		require.NotEqual(t, "9", key, "season %s took the league key", season.Year)
		require.False(t, keys[key], "duplicate season key %s", key)
		keys[key] = true
	}
	require.Len(t, keys, 3)
}

func TestExtractSquadPage(t *testing.T) {
	t.Parallel()

	e := New()
	squadURL := "https://fbref.com/en/squads/b8fd03ef/Manchester-City-Stats"
	out, err := e.Extract(crawler.FetchResult{
		Target: crawler.FetchTarget{
			URL: squadURL,
			Metadata: map[string]any{
				"league": "Premier-League",
				"season": "2024-2025",
				"club":   "Manchester City",
			},
		},
		URL:  squadURL,
		Body: []byte(squadHTML),
	})
	require.NoError(t, err)

	// One Player plus one PlayerStats per roster row; the summary row without
	// a player link is skipped. Squad pages yield no follow-ups.
	require.Len(t, out.Records, 2)
	require.Empty(t, out.Targets)

	player, ok := out.Records[0].(*record.Player)
	require.True(t, ok)
	require.Equal(t, "Kevin", player.FirstName)
	require.Equal(t, "De Bruyne", player.LastName)
	require.Equal(t, "BEL", player.Nationality)
	require.Equal(t, "MF", player.Position)
	require.Equal(t, "1991-06-28", player.DateOfBirth)
	require.Equal(t, "https://fbref.com/en/players/dea698d9/Kevin-De-Bruyne", player.URL)

	stats, ok := out.Records[1].(*record.PlayerStats)
	require.True(t, ok)
	require.Equal(t, player.URL, stats.PlayerIDRaw)
	require.Equal(t, "2024-2025", stats.Season)
	require.Equal(t, "Manchester City", stats.Club)
	require.Equal(t, "28", stats.MatchesPlayedRaw)
	require.Equal(t, "18", stats.AssistsRaw)
	require.Equal(t, "2,320", stats.MinutesPlayedRaw)
}

func TestExtractSquadFallsBackToPageHeading(t *testing.T) {
	t.Parallel()

	e := New()
	squadURL := "https://fbref.com/en/squads/b8fd03ef/Manchester-City-Stats"
	out, err := e.Extract(crawler.FetchResult{
		Target: crawler.FetchTarget{URL: squadURL},
		URL:    squadURL,
		Body:   []byte(squadHTML),
	})
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	player := out.Records[0].(*record.Player)
	require.Equal(t, "Manchester City", player.Club)
}

func TestExtractUnknownPageYieldsNothing(t *testing.T) {
	t.Parallel()

	e := New()
	out, err := e.Extract(crawler.FetchResult{
		URL:  "https://fbref.com/en/about",
		Body: []byte("<html><body><p>hello</p></body></html>"),
	})
	require.NoError(t, err)
	require.Empty(t, out.Records)
	require.Empty(t, out.Targets)
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	first, last := splitName("Kevin De Bruyne")
	require.Equal(t, "Kevin", first)
	require.Equal(t, "De Bruyne", last)

	first, last = splitName("Rodri")
	require.Equal(t, "", first)
	require.Equal(t, "Rodri", last)

	first, last = splitName("")
	require.Equal(t, "", first)
	require.Equal(t, "", last)
}
