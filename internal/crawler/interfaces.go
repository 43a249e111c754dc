package crawler

import (
	"context"

	"github.com/fbstats/fbref-crawler/internal/record"
)

// Fetcher retrieves one target. Implementations own rate limiting, retries,
// and timeouts; an error return is a terminal fetch failure.
type Fetcher interface {
	Fetch(ctx context.Context, target FetchTarget) (FetchResult, error)
}

// Extraction is everything one page yielded: records for the pipeline and
// follow-up targets for the frontier, each in page order.
type Extraction struct {
	Records []record.Record
	Targets []FetchTarget
}

// Extractor turns a fetched page into records and follow-up targets. It must
// be a pure function of the result body so a refetched page can be replayed
// through it safely. A parse error is isolated to that page.
type Extractor interface {
	Extract(result FetchResult) (Extraction, error)
}

// Observer receives per-event notifications alongside the run counters.
// Implementations must be safe for concurrent use.
type Observer interface {
	FetchDone(outcome string)
	RecordDone(kind, outcome string)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) FetchDone(string)          {}
func (NopObserver) RecordDone(string, string) {}
