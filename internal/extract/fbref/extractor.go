// Package fbref extracts structured records from fbref.com pages. The crawl
// core treats this package as an opaque collaborator behind the
// crawler.Extractor interface.
package fbref

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fbstats/fbref-crawler/internal/crawler"
	"github.com/fbstats/fbref-crawler/internal/record"
)

// Metadata keys carried on fetch targets so child pages know their context.
const (
	metaLeague   = "league"
	metaLeagueID = "league_id"
	metaSeason   = "season"
	metaClub     = "club"
)

// Extractor routes a fetched page to the parser for its URL shape. It keeps
// no state between calls, so replaying a refetched page is safe.
type Extractor struct{}

// New builds an Extractor.
func New() *Extractor { return &Extractor{} }

// SeedTargets returns the frontier seeds for the given leagues: one seasons
// history page per league.
func SeedTargets(leagues []League) []crawler.FetchTarget {
	targets := make([]crawler.FetchTarget, 0, len(leagues))
	for _, l := range leagues {
		targets = append(targets, crawler.FetchTarget{
			URL: SeasonsHistoryURL(l),
			Metadata: map[string]any{
				metaLeague:   l.Name,
				metaLeagueID: l.ID,
			},
		})
	}
	return targets
}

// Extract implements crawler.Extractor.
func (e *Extractor) Extract(result crawler.FetchResult) (crawler.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return crawler.Extraction{}, fmt.Errorf("parse html: %w", err)
	}
	switch {
	case strings.Contains(result.URL, "/history/"):
		return e.extractSeasons(doc, result)
	case strings.Contains(result.URL, "/squads/"):
		return e.extractSquad(doc, result)
	case strings.Contains(result.URL, "/comps/"):
		return e.extractSeasonClubs(doc, result)
	default:
		return crawler.Extraction{}, nil
	}
}

// extractSeasons parses a competition history page into one League record,
// one Season record per listed season, and follow-up targets for each season
// stats page.
func (e *Extractor) extractSeasons(doc *goquery.Document, result crawler.FetchResult) (crawler.Extraction, error) {
	meta := result.Target.Metadata
	leagueName := metaString(meta, metaLeague)
	leagueID := metaString(meta, metaLeagueID)

	var out crawler.Extraction
	out.Records = append(out.Records, &record.League{
		IDRaw:   leagueID,
		Name:    strings.TrimSpace(doc.Find("h1").First().Text()),
		Country: strings.TrimSpace(doc.Find(`th[data-stat="country"] a`).First().Text()),
		TierRaw: doc.Find(`td[data-stat="tier"]`).First().Text(),
		URL:     result.URL,
	})
	league := out.Records[0].(*record.League)

	doc.Find("table#seasons tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find(`th[data-stat="year_id"] a`).First()
		year := strings.TrimSpace(link.Text())
		if year == "" {
			return
		}
		seasonURL := ""
		if href, ok := link.Attr("href"); ok {
			seasonURL = absoluteURL(result.URL, href)
		} else if leagueID != "" && leagueName != "" {
			// Some season rows carry the year without a link; the stats page
			// URL is reconstructable from the competition and year.
			if built, err := SeasonStatsURL(League{Name: leagueName, ID: leagueID}, year); err == nil {
				seasonURL = built
			}
		}
		if seasonURL == "" {
			return
		}
		league.Seasons = append(league.Seasons, year)
		out.Records = append(out.Records, &record.Season{
			IDRaw:          seasonID(leagueID, year),
			Year:           year,
			Competition:    leagueName,
			CompetitionURL: result.URL,
			URL:            seasonURL,
		})
		out.Targets = append(out.Targets, crawler.FetchTarget{
			URL: seasonURL,
			Metadata: map[string]any{
				metaLeague:   leagueName,
				metaLeagueID: leagueID,
				metaSeason:   year,
			},
		})
	})
	return out, nil
}

// extractSeasonClubs parses a season stats page into one Club record per
// squad plus follow-up targets for the squad pages, and re-emits the season
// with its club list attached.
func (e *Extractor) extractSeasonClubs(doc *goquery.Document, result crawler.FetchResult) (crawler.Extraction, error) {
	meta := result.Target.Metadata
	leagueName := metaString(meta, metaLeague)
	leagueID := metaString(meta, metaLeagueID)
	season := metaString(meta, metaSeason)

	var out crawler.Extraction
	var clubNames []string
	seen := make(map[string]bool)
	doc.Find(`table.stats_table td[data-stat="team"] a, table.stats_table th[data-stat="team"] a`).
		Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			name := strings.TrimSpace(link.Text())
			if !ok || name == "" {
				return
			}
			squadURL := absoluteURL(result.URL, href)
			if seen[squadURL] {
				return
			}
			seen[squadURL] = true
			clubNames = append(clubNames, name)
			out.Records = append(out.Records, &record.Club{
				IDRaw:  squadURL,
				Name:   name,
				League: leagueName,
				Season: season,
				URL:    squadURL,
			})
			out.Targets = append(out.Targets, crawler.FetchTarget{
				URL: squadURL,
				Metadata: map[string]any{
					metaLeague: leagueName,
					metaSeason: season,
					metaClub:   name,
				},
			})
		})
	if len(clubNames) > 0 && season != "" {
		// The club list only becomes known here; re-emit the season so the
		// upsert fills it in on the row the history page created.
		out.Records = append(out.Records, &record.Season{
			IDRaw:       seasonID(leagueID, season),
			Year:        season,
			Competition: leagueName,
			URL:         result.URL,
			Clubs:       clubNames,
		})
	}
	return out, nil
}

// extractSquad parses a squad roster page into Player and PlayerStats
// records, one pair per roster row. Squad pages yield no follow-ups.
func (e *Extractor) extractSquad(doc *goquery.Document, result crawler.FetchResult) (crawler.Extraction, error) {
	meta := result.Target.Metadata
	leagueName := metaString(meta, metaLeague)
	season := metaString(meta, metaSeason)
	club := metaString(meta, metaClub)
	if club == "" {
		club = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var out crawler.Extraction
	doc.Find("table.stats_table tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find(`th[data-stat="player"] a`).First()
		name := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if name == "" || !ok {
			return
		}
		playerURL := absoluteURL(result.URL, href)
		first, last := splitName(name)
		position := row.Find(`td[data-stat="position"]`).Text()
		nationality := nationalityOf(row.Find(`td[data-stat="nationality"]`).Text())

		out.Records = append(out.Records,
			&record.Player{
				IDRaw:       playerURL,
				FirstName:   first,
				LastName:    last,
				DateOfBirth: strings.TrimSpace(row.Find(`td[data-stat="birth_date"]`).Text()),
				Position:    position,
				Nationality: nationality,
				Club:        club,
				URL:         playerURL,
			},
			&record.PlayerStats{
				PlayerIDRaw:      playerURL,
				Season:           season,
				Club:             club,
				League:           leagueName,
				Position:         position,
				MatchesPlayedRaw: row.Find(`td[data-stat="games"]`).Text(),
				GoalsRaw:         row.Find(`td[data-stat="goals"]`).Text(),
				AssistsRaw:       row.Find(`td[data-stat="assists"]`).Text(),
				YellowCardsRaw:   row.Find(`td[data-stat="cards_yellow"]`).Text(),
				RedCardsRaw:      row.Find(`td[data-stat="cards_red"]`).Text(),
				MinutesPlayedRaw: row.Find(`td[data-stat="minutes"]`).Text(),
				URL:              playerURL,
			},
		)
	})
	return out, nil
}

// seasonID keys a season by competition and year. The season page URL cannot
// feed the generic URL-id rule: its first short path segment is the
// competition id, shared by every season of that league, which would collapse
// all of a league's seasons onto one key.
func seasonID(leagueID, year string) string {
	if leagueID == "" {
		return year
	}
	return leagueID + "-" + year
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// nationalityOf keeps the trailing country code of fbref's "eng ENG" cells.
func nationalityOf(cell string) string {
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
