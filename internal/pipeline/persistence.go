package pipeline

import (
	"context"
	"fmt"

	"github.com/fbstats/fbref-crawler/internal/record"
)

// Sink is the key-addressable upsert store the persistence stage writes to.
// Implementations must make each upsert atomic per record; retry policy, if
// any, belongs to the sink.
type Sink interface {
	Upsert(ctx context.Context, rec record.Record) error
}

// Persistence hands records to the sink. It never retries; a sink error
// becomes a Failed outcome for that record only.
type Persistence struct {
	sink Sink
}

// NewPersistence builds the persistence stage over sink.
func NewPersistence(sink Sink) *Persistence {
	return &Persistence{sink: sink}
}

// Name implements Stage.
func (*Persistence) Name() string { return "persistence" }

// Process implements Stage.
func (p *Persistence) Process(ctx context.Context, rec record.Record) (record.Record, error) {
	switch rec.(type) {
	case *record.League, *record.Season, *record.Club, *record.Player, *record.PlayerStats:
	default:
		record.MustKind(rec)
	}
	if err := p.sink.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert %s %q: %w", rec.Kind(), rec.Key(), err)
	}
	return rec, nil
}
