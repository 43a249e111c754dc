// Package postgres implements the pipeline sink on a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fbstats/fbref-crawler/internal/record"
)

// Reason distinguishes why an upsert failed.
type Reason string

// Upsert failure reasons.
const (
	ReasonConstraint   Reason = "constraint"
	ReasonConnectivity Reason = "connectivity"
)

// UpsertError reports a failed upsert with its classification.
type UpsertError struct {
	Kind   record.Kind
	Key    string
	Reason Reason
	Err    error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("upsert %s %q (%s): %v", e.Kind, e.Key, e.Reason, e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }

// Config controls the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Store is the key-addressable upsert sink. Conflicting concurrent writes to
// one natural key serialize at the database row, not in the pipeline.
type Store struct {
	pool execCloser
}

// NewStore connects a pool from cfg.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewStoreWithPool(pool execCloser) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the five tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or updates the row addressed by the record's natural key.
// Each call is one atomic statement; descriptive columns that arrive blank
// keep their stored value instead of being erased, every other mutable
// column is overwritten with the incoming value.
func (s *Store) Upsert(ctx context.Context, rec record.Record) error {
	var (
		query string
		args  []any
		err   error
	)
	switch r := rec.(type) {
	case *record.League:
		query, args, err = leagueUpsert(r)
	case *record.Season:
		query, args, err = seasonUpsert(r)
	case *record.Club:
		query = clubUpsertSQL
		args = []any{r.ID, r.Name, r.Country, r.League, r.Season, r.URL, r.PlayersCount}
	case *record.Player:
		query = playerUpsertSQL
		args = []any{r.ID, r.FirstName, r.LastName, nullable(r.DateOfBirth), r.Position, r.Nationality, r.Club, r.URL}
	case *record.PlayerStats:
		query = playerStatsUpsertSQL
		args = []any{
			r.PlayerID, r.Season, r.Club, r.League, r.Position,
			r.MatchesPlayed, r.Goals, r.Assists, r.YellowCards, r.RedCards, r.MinutesPlayed,
			r.URL,
		}
	default:
		record.MustKind(rec)
	}
	if err != nil {
		return &UpsertError{Kind: rec.Kind(), Key: rec.Key(), Reason: ReasonConnectivity, Err: err}
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return &UpsertError{Kind: rec.Kind(), Key: rec.Key(), Reason: classify(err), Err: err}
	}
	return nil
}

func leagueUpsert(r *record.League) (string, []any, error) {
	seasons, err := json.Marshal(r.Seasons)
	if err != nil {
		return "", nil, fmt.Errorf("marshal seasons: %w", err)
	}
	return leagueUpsertSQL, []any{r.ID, r.Name, r.Country, r.Tier, r.URL, seasons}, nil
}

func seasonUpsert(r *record.Season) (string, []any, error) {
	clubs, err := json.Marshal(r.Clubs)
	if err != nil {
		return "", nil, fmt.Errorf("marshal clubs: %w", err)
	}
	return seasonUpsertSQL, []any{r.ID, r.Year, r.Competition, r.CompetitionURL, r.URL, clubs}, nil
}

// classify maps SQLSTATE class 23 (integrity constraint violations) to
// ReasonConstraint; everything else reads as a connectivity problem.
func classify(err error) Reason {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return ReasonConstraint
	}
	return ReasonConnectivity
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

const leagueUpsertSQL = `
INSERT INTO leagues (id, name, country, tier, url, seasons)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	country = COALESCE(NULLIF(EXCLUDED.country, ''), leagues.country),
	tier = EXCLUDED.tier,
	url = EXCLUDED.url,
	seasons = EXCLUDED.seasons`

const seasonUpsertSQL = `
INSERT INTO seasons (id, year, competition, competition_url, url, clubs)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	year = EXCLUDED.year,
	competition = COALESCE(NULLIF(EXCLUDED.competition, ''), seasons.competition),
	competition_url = COALESCE(NULLIF(EXCLUDED.competition_url, ''), seasons.competition_url),
	url = EXCLUDED.url,
	clubs = COALESCE(NULLIF(EXCLUDED.clubs, 'null'::jsonb), seasons.clubs)`

const clubUpsertSQL = `
INSERT INTO clubs (id, name, country, league, season, url, players_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	country = COALESCE(NULLIF(EXCLUDED.country, ''), clubs.country),
	league = COALESCE(NULLIF(EXCLUDED.league, ''), clubs.league),
	season = EXCLUDED.season,
	url = EXCLUDED.url,
	players_count = EXCLUDED.players_count`

const playerUpsertSQL = `
INSERT INTO players (id, first_name, last_name, date_of_birth, position, nationality, club, url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	date_of_birth = COALESCE(EXCLUDED.date_of_birth, players.date_of_birth),
	position = COALESCE(NULLIF(EXCLUDED.position, ''), players.position),
	nationality = COALESCE(NULLIF(EXCLUDED.nationality, ''), players.nationality),
	club = EXCLUDED.club,
	url = EXCLUDED.url`

const playerStatsUpsertSQL = `
INSERT INTO player_stats (player_id, season, club, league, position,
	matches_played, goals, assists, yellow_cards, red_cards, minutes_played, url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (player_id, season, club) DO UPDATE SET
	league = COALESCE(NULLIF(EXCLUDED.league, ''), player_stats.league),
	position = COALESCE(NULLIF(EXCLUDED.position, ''), player_stats.position),
	matches_played = EXCLUDED.matches_played,
	goals = EXCLUDED.goals,
	assists = EXCLUDED.assists,
	yellow_cards = EXCLUDED.yellow_cards,
	red_cards = EXCLUDED.red_cards,
	minutes_played = EXCLUDED.minutes_played,
	url = EXCLUDED.url`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS leagues (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		country VARCHAR(255),
		tier INTEGER,
		url VARCHAR(512) UNIQUE,
		seasons JSONB,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS seasons (
		id VARCHAR(255) PRIMARY KEY,
		year VARCHAR(50) NOT NULL,
		competition VARCHAR(255),
		competition_url VARCHAR(512),
		url VARCHAR(512) UNIQUE,
		clubs JSONB,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clubs (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		country VARCHAR(255),
		league VARCHAR(255),
		season VARCHAR(50),
		url VARCHAR(512) UNIQUE,
		players_count INTEGER,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id VARCHAR(255) PRIMARY KEY,
		first_name VARCHAR(255),
		last_name VARCHAR(255),
		date_of_birth DATE,
		position VARCHAR(50),
		nationality VARCHAR(255),
		club VARCHAR(255),
		url VARCHAR(512) UNIQUE,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS player_stats (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		player_id VARCHAR(255) NOT NULL,
		season VARCHAR(50) NOT NULL,
		club VARCHAR(255) NOT NULL,
		league VARCHAR(255),
		position VARCHAR(50),
		matches_played INTEGER,
		goals INTEGER,
		assists INTEGER,
		yellow_cards INTEGER,
		red_cards INTEGER,
		minutes_played INTEGER,
		url VARCHAR(512),
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE (player_id, season, club)
	)`,
}
