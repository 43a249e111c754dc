package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/fbstats/fbref-crawler/internal/record"
)

// Validation enforces per-kind required fields after cleaning. Violations
// drop the record; they are expected business outcomes, never failures.
type Validation struct{}

// NewValidation builds the validation stage.
func NewValidation() *Validation { return &Validation{} }

// Name implements Stage.
func (*Validation) Name() string { return "validation" }

// Process implements Stage.
func (*Validation) Process(_ context.Context, rec record.Record) (record.Record, error) {
	switch r := rec.(type) {
	case *record.League:
		if err := required(map[string]string{
			"league_id": r.ID,
			"name":      r.Name,
			"url":       r.URL,
		}); err != nil {
			return nil, err
		}
	case *record.Season:
		if err := required(map[string]string{
			"season_id": r.ID,
			"year":      r.Year,
			"url":       r.URL,
		}); err != nil {
			return nil, err
		}
	case *record.Club:
		if err := required(map[string]string{
			"club_id": r.ID,
			"name":    r.Name,
			"url":     r.URL,
		}); err != nil {
			return nil, err
		}
	case *record.Player:
		if err := required(map[string]string{
			"player_id": r.ID,
			"url":       r.URL,
		}); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(r.URL, "http") {
			return nil, Dropf("invalid url format: %s", r.URL)
		}
	case *record.PlayerStats:
		if err := required(map[string]string{
			"player_id": r.PlayerID,
			"season":    r.Season,
			"url":       r.URL,
		}); err != nil {
			return nil, err
		}
	default:
		record.MustKind(rec)
	}
	if rec.Key() == "" {
		return nil, Dropf("empty natural key for %s", rec.Kind())
	}
	return rec, nil
}

func required(fields map[string]string) error {
	// Deterministic order keeps drop reasons stable for logs and tests.
	for _, name := range sortedKeys(fields) {
		if strings.TrimSpace(fields[name]) == "" {
			return Dropf("missing required field: %s", name)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
