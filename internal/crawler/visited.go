package crawler

import "sync"

// visitTracker is the visited set guarding the frontier. Marking happens
// before enqueue so two workers extracting the same link cannot both queue it.
type visitTracker struct {
	seen sync.Map
}

func newVisitTracker() *visitTracker {
	return &visitTracker{}
}

// MarkIfNew stores the normalized URL if it has not been seen before and
// reports whether this caller won the claim.
func (t *visitTracker) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	_, loaded := t.seen.LoadOrStore(url, struct{}{})
	return !loaded
}
