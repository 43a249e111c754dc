// Package crawler implements the crawl core: shared fetch types, the
// frontier, and the concurrency-bounded run loop.
package crawler

import (
	"sync/atomic"
	"time"
)

// FetchTarget is one URL queued for fetching. Targets are immutable once
// enqueued; Attempt is stamped by the fetcher on the copy it works with.
type FetchTarget struct {
	URL      string
	Metadata map[string]any
	Attempt  int
}

// FetchResult is a successfully fetched page. It is handed to the extractor
// exactly once and then discarded; the body is never retained.
type FetchResult struct {
	Target     FetchTarget
	URL        string // final URL after redirects
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// Summary is the operator-facing tally reported when a run finishes.
type Summary struct {
	RunID         string
	Fetched       int64
	FetchFailed   int64
	Extracted     int64
	Dropped       int64
	Persisted     int64
	PersistFailed int64
	Elapsed       time.Duration
}

// stats accumulates run counters. Workers share one instance; every
// increment is atomic.
type stats struct {
	fetched       atomic.Int64
	fetchFailed   atomic.Int64
	extracted     atomic.Int64
	dropped       atomic.Int64
	persisted     atomic.Int64
	persistFailed atomic.Int64
}

func (s *stats) summary(runID string, elapsed time.Duration) Summary {
	return Summary{
		RunID:         runID,
		Fetched:       s.fetched.Load(),
		FetchFailed:   s.fetchFailed.Load(),
		Extracted:     s.extracted.Load(),
		Dropped:       s.dropped.Load(),
		Persisted:     s.persisted.Load(),
		PersistFailed: s.persistFailed.Load(),
		Elapsed:       elapsed,
	}
}
