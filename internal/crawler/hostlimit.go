package crawler

import (
	"context"
	"sync"
)

// hostLimiter caps simultaneous in-flight fetches per host, independent of
// the global worker ceiling. Zero or negative max disables the cap.
type hostLimiter struct {
	mu    sync.Mutex
	max   int
	slots map[string]chan struct{}
}

func newHostLimiter(max int) *hostLimiter {
	return &hostLimiter{
		max:   max,
		slots: make(map[string]chan struct{}),
	}
}

// Acquire blocks until the host has a free slot or ctx ends.
func (h *hostLimiter) Acquire(ctx context.Context, host string) error {
	if h.max <= 0 || host == "" {
		return nil
	}
	h.mu.Lock()
	sem, ok := h.slots[host]
	if !ok {
		sem = make(chan struct{}, h.max)
		h.slots[host] = sem
	}
	h.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot previously acquired for host.
func (h *hostLimiter) Release(host string) {
	if h.max <= 0 || host == "" {
		return
	}
	h.mu.Lock()
	sem := h.slots[host]
	h.mu.Unlock()
	if sem != nil {
		<-sem
	}
}
