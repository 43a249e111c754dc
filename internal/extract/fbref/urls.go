package fbref

import "fmt"

const baseURL = "https://fbref.com"

// League identifies one of the competitions the crawler seeds from.
type League struct {
	Name string // URL form, e.g. "Premier-League"
	ID   string
}

// Leagues is the registry of supported top-flight competitions.
var Leagues = []League{
	{Name: "Premier-League", ID: "9"},
	{Name: "La-Liga", ID: "12"},
	{Name: "Ligue-1", ID: "13"},
	{Name: "Bundesliga", ID: "20"},
	{Name: "Serie-A", ID: "11"},
}

// LeagueByName looks a league up by its URL form.
func LeagueByName(name string) (League, bool) {
	for _, l := range Leagues {
		if l.Name == name {
			return l, true
		}
	}
	return League{}, false
}

// SeasonsHistoryURL is the page listing every season of a competition.
func SeasonsHistoryURL(l League) string {
	return fmt.Sprintf("%s/en/comps/%s/history/%s-Seasons", baseURL, l.ID, l.Name)
}

// SeasonStatsURL is the stats page of one season of a competition. Season
// must be in the YYYY-YYYY form fbref uses.
func SeasonStatsURL(l League, season string) (string, error) {
	if len(season) != 9 || season[4] != '-' {
		return "", fmt.Errorf("invalid season %q: want YYYY-YYYY", season)
	}
	return fmt.Sprintf("%s/en/comps/%s/%s/%s-%s-Stats", baseURL, l.ID, season, season, l.Name), nil
}
