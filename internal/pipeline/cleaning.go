package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/fbstats/fbref-crawler/internal/record"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonDigits     = regexp.MustCompile(`[^\d]`)
	// fbref entity ids are the first fully-hex path segment of the page URL,
	// e.g. /en/squads/b8fd03ef/Manchester-City-Stats or /en/comps/9/history.
	urlIDSegment = regexp.MustCompile(`/([0-9a-fA-F-]+)/`)
)

// Cleaning normalizes scraped text in place. It never drops a record and is
// idempotent: rerunning it over an already-cleaned record changes nothing.
type Cleaning struct{}

// NewCleaning builds the cleaning stage.
func NewCleaning() *Cleaning { return &Cleaning{} }

// Name implements Stage.
func (*Cleaning) Name() string { return "cleaning" }

// Process implements Stage.
func (*Cleaning) Process(_ context.Context, rec record.Record) (record.Record, error) {
	switch r := rec.(type) {
	case *record.League:
		r.ID = resolveID(r.IDRaw, r.ID)
		r.Name = cleanText(r.Name)
		r.Country = cleanText(r.Country)
		r.Tier = cleanCount(r.TierRaw, r.Tier)
		r.URL = strings.TrimSpace(r.URL)
	case *record.Season:
		r.ID = resolveID(r.IDRaw, r.ID)
		r.Year = cleanText(r.Year)
		r.Competition = cleanText(r.Competition)
		r.CompetitionURL = strings.TrimSpace(r.CompetitionURL)
		r.URL = strings.TrimSpace(r.URL)
	case *record.Club:
		r.ID = resolveID(r.IDRaw, r.ID)
		r.Name = cleanText(r.Name)
		r.Country = cleanText(r.Country)
		r.League = cleanText(r.League)
		r.Season = cleanText(r.Season)
		r.PlayersCount = cleanCount(r.PlayersCountRaw, r.PlayersCount)
		r.URL = strings.TrimSpace(r.URL)
	case *record.Player:
		r.ID = resolveID(r.IDRaw, r.ID)
		r.FirstName = cleanText(r.FirstName)
		r.LastName = cleanText(r.LastName)
		r.DateOfBirth = cleanText(r.DateOfBirth)
		r.Position = cleanText(r.Position)
		r.Nationality = cleanText(r.Nationality)
		r.Club = cleanText(r.Club)
		r.URL = strings.TrimSpace(r.URL)
	case *record.PlayerStats:
		r.PlayerID = resolveID(r.PlayerIDRaw, r.PlayerID)
		r.Season = cleanText(r.Season)
		r.Club = cleanText(r.Club)
		r.League = cleanText(r.League)
		r.Position = cleanText(r.Position)
		r.MatchesPlayed = cleanCount(r.MatchesPlayedRaw, r.MatchesPlayed)
		r.Goals = cleanCount(r.GoalsRaw, r.Goals)
		r.Assists = cleanCount(r.AssistsRaw, r.Assists)
		r.YellowCards = cleanCount(r.YellowCardsRaw, r.YellowCards)
		r.RedCards = cleanCount(r.RedCardsRaw, r.RedCards)
		r.MinutesPlayed = cleanCount(r.MinutesPlayedRaw, r.MinutesPlayed)
		r.URL = strings.TrimSpace(r.URL)
	default:
		record.MustKind(rec)
	}
	return rec, nil
}

// cleanText trims and collapses internal whitespace runs to single spaces.
func cleanText(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// cleanCount strips every non-digit from raw and parses the rest. An empty or
// digit-free raw value keeps current when current is already set, otherwise 0.
func cleanCount(raw string, current int) int {
	if strings.TrimSpace(raw) == "" {
		return current
	}
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Overflow on absurdly long digit runs; treat like unparseable.
		return 0
	}
	return n
}

// resolveID turns an identifier that arrived as a full page URL into its
// short id. Plain ids pass through trimmed; an empty raw keeps current so a
// second cleaning pass cannot erase a resolved id.
func resolveID(raw, current string) string {
	src := strings.TrimSpace(raw)
	if src == "" {
		return current
	}
	if strings.HasPrefix(src, "http") {
		if m := urlIDSegment.FindStringSubmatch(src); m != nil {
			return m[1]
		}
		return current
	}
	return src
}
