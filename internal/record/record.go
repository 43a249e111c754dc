// Package record defines the closed set of record kinds produced by
// extraction and carried through the pipeline. Fields suffixed Raw hold
// scraped text as it appeared on the page; the cleaning stage resolves them
// into the typed fields next to them.
package record

import "fmt"

// Kind identifies one of the five record kinds.
type Kind string

// The complete set of record kinds. A stage that sees anything else is
// handling a contract violation and must not continue.
const (
	KindLeague      Kind = "league"
	KindSeason      Kind = "season"
	KindClub        Kind = "club"
	KindPlayer      Kind = "player"
	KindPlayerStats Kind = "player_stats"
)

// Record is the tagged variant carried through the pipeline. It is sealed:
// only the five types in this package implement it.
type Record interface {
	Kind() Kind
	// Key returns the natural key used for upserts. Empty means the record
	// has not been cleaned yet or is invalid.
	Key() string

	sealed()
}

// League is one competition, e.g. the Premier League.
type League struct {
	IDRaw   string // short id or a full comps URL
	ID      string
	Name    string
	Country string
	TierRaw string
	Tier    int
	URL     string
	Seasons []string
}

// Season is one year of one competition.
type Season struct {
	IDRaw          string
	ID             string
	Year           string
	Competition    string
	CompetitionURL string
	URL            string
	Clubs          []string
}

// Club is one squad within a league season.
type Club struct {
	IDRaw           string // short id or a full squads URL
	ID              string
	Name            string
	Country         string
	League          string
	Season          string
	URL             string
	PlayersCountRaw string // e.g. "25 players"
	PlayersCount    int
}

// Player is one player's bio row.
type Player struct {
	IDRaw       string
	ID          string
	FirstName   string
	LastName    string
	DateOfBirth string
	Position    string
	Nationality string
	Club        string
	URL         string
}

// PlayerStats is one player's line for one season at one club. Its natural
// key is the composite (player id, season, club).
type PlayerStats struct {
	PlayerIDRaw      string
	PlayerID         string
	Season           string
	Club             string
	League           string
	Position         string
	MatchesPlayedRaw string
	MatchesPlayed    int
	GoalsRaw         string
	Goals            int
	AssistsRaw       string
	Assists          int
	YellowCardsRaw   string
	YellowCards      int
	RedCardsRaw      string
	RedCards         int
	MinutesPlayedRaw string
	MinutesPlayed    int
	URL              string
}

func (*League) Kind() Kind      { return KindLeague }
func (*Season) Kind() Kind      { return KindSeason }
func (*Club) Kind() Kind        { return KindClub }
func (*Player) Kind() Kind      { return KindPlayer }
func (*PlayerStats) Kind() Kind { return KindPlayerStats }

func (l *League) Key() string { return l.ID }
func (s *Season) Key() string { return s.ID }
func (c *Club) Key() string   { return c.ID }
func (p *Player) Key() string { return p.ID }

// Key joins the composite key with "/" separators purely for logging and
// in-memory addressing; the database key remains the three columns.
func (s *PlayerStats) Key() string {
	if s.PlayerID == "" {
		return ""
	}
	return s.PlayerID + "/" + s.Season + "/" + s.Club
}

func (*League) sealed()      {}
func (*Season) sealed()      {}
func (*Club) sealed()        {}
func (*Player) sealed()      {}
func (*PlayerStats) sealed() {}

// MustKind panics when rec is not one of the five kinds. Stages call it at
// their default switch arm so a contract violation between the extractor and
// the pipeline aborts instead of being swallowed.
func MustKind(rec Record) {
	panic(fmt.Sprintf("record: unknown kind %T", rec))
}
