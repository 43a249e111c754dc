package crawler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fbstats/fbref-crawler/internal/pipeline"
)

// Config bounds a crawl run.
type Config struct {
	Workers    int
	PerHostMax int
	MaxPages   int // 0 means unbounded
}

// Crawler drives the frontier: it fans targets out to a bounded worker pool,
// routes extracted records through the pipeline, and feeds follow-up targets
// back into the frontier until it drains.
type Crawler struct {
	fetcher   Fetcher
	extractor Extractor
	chain     *pipeline.Chain
	observer  Observer
	logger    *zap.Logger
	cfg       Config
}

// New constructs a Crawler. A nil observer disables per-event notifications.
func New(
	fetcher Fetcher,
	extractor Extractor,
	chain *pipeline.Chain,
	cfg Config,
	logger *zap.Logger,
	observer Observer,
) *Crawler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Crawler{
		fetcher:   fetcher,
		extractor: extractor,
		chain:     chain,
		observer:  observer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run crawls from the seed targets until the frontier is empty and no fetch
// is in flight, then returns the run summary. Cancelling ctx stops new
// dispatches; in-flight fetches finish or abort within their own timeout.
func (c *Crawler) Run(ctx context.Context, seeds []FetchTarget) (Summary, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := c.logger.With(zap.String("run_id", runID))

	visited := newVisitTracker()
	hosts := newHostLimiter(c.cfg.PerHostMax)
	st := &stats{}

	queue := make([]FetchTarget, 0, len(seeds))
	for _, seed := range seeds {
		norm, err := NormalizeURL(seed.URL)
		if err != nil {
			logger.Warn("discarding unparseable seed", zap.String("url", seed.URL), zap.Error(err))
			continue
		}
		if visited.MarkIfNew(norm) {
			queue = append(queue, seed)
		}
	}
	pending := len(queue)

	targetCh := make(chan FetchTarget)
	completionCh := make(chan []FetchTarget)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Workers; i++ {
		g.Go(func() error {
			for target := range targetCh {
				followUps := c.process(gctx, target, st, hosts, logger)
				completionCh <- followUps
			}
			return nil
		})
	}

	logger.Info("crawl started",
		zap.Int("seeds", pending),
		zap.Int("workers", c.cfg.Workers),
		zap.Int("per_host_max", c.cfg.PerHostMax),
	)

	dispatched := 0
	stopped := false
	ctxDone := gctx.Done()
	for pending > 0 {
		var dispatchCh chan FetchTarget
		var head FetchTarget
		if len(queue) > 0 && !stopped {
			dispatchCh = targetCh
			head = queue[0]
		}
		select {
		case dispatchCh <- head:
			queue = queue[1:]
			dispatched++
			if c.cfg.MaxPages > 0 && dispatched >= c.cfg.MaxPages {
				logger.Info("page budget reached", zap.Int("dispatched", dispatched))
				pending -= len(queue)
				queue = nil
				stopped = true
			}
		case followUps := <-completionCh:
			pending--
			if stopped {
				continue
			}
			for _, target := range followUps {
				norm, err := NormalizeURL(target.URL)
				if err != nil {
					logger.Warn("discarding unparseable follow-up", zap.String("url", target.URL), zap.Error(err))
					continue
				}
				// Mark before enqueue: a duplicate found by a concurrent
				// extraction is discarded here, silently.
				if visited.MarkIfNew(norm) {
					queue = append(queue, target)
					pending++
				}
			}
		case <-ctxDone:
			logger.Info("crawl cancelled, draining in-flight fetches")
			pending -= len(queue)
			queue = nil
			stopped = true
			ctxDone = nil
		}
	}
	close(targetCh)
	if err := g.Wait(); err != nil {
		logger.Error("worker pool error", zap.Error(err))
	}

	summary := st.summary(runID, time.Since(start))
	logger.Info("crawl finished",
		zap.Int64("fetched", summary.Fetched),
		zap.Int64("fetch_failed", summary.FetchFailed),
		zap.Int64("extracted", summary.Extracted),
		zap.Int64("dropped", summary.Dropped),
		zap.Int64("persisted", summary.Persisted),
		zap.Int64("persist_failed", summary.PersistFailed),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, ctx.Err()
}

// process fetches one target, extracts it, and runs every record through the
// stage chain in extraction order. It returns the follow-up targets the page
// yielded; a failed fetch yields none.
func (c *Crawler) process(
	ctx context.Context,
	target FetchTarget,
	st *stats,
	hosts *hostLimiter,
	logger *zap.Logger,
) []FetchTarget {
	host := hostOf(target.URL)
	if err := hosts.Acquire(ctx, host); err != nil {
		logger.Debug("host slot wait aborted", zap.String("url", target.URL), zap.Error(err))
		return nil
	}
	result, err := c.fetcher.Fetch(ctx, target)
	hosts.Release(host)
	if err != nil {
		st.fetchFailed.Add(1)
		c.observer.FetchDone("failed")
		logger.Warn("fetch failed", zap.String("url", target.URL), zap.Error(err))
		return nil
	}
	st.fetched.Add(1)
	c.observer.FetchDone("ok")

	extraction, err := c.extractor.Extract(result)
	if err != nil {
		// Parse errors are isolated to the page; the crawl continues.
		logger.Warn("extraction failed", zap.String("url", result.URL), zap.Error(err))
	}

	st.extracted.Add(int64(len(extraction.Records)))
	for _, rec := range extraction.Records {
		outcome := c.chain.Run(ctx, rec)
		switch outcome.Kind {
		case pipeline.OutcomePersisted:
			st.persisted.Add(1)
		case pipeline.OutcomeDropped:
			st.dropped.Add(1)
		case pipeline.OutcomeFailed:
			st.persistFailed.Add(1)
		}
		c.observer.RecordDone(string(rec.Kind()), string(outcome.Kind))
	}
	return extraction.Targets
}
