package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/fbstats/fbref-crawler/internal/crawler"
)

// Config controls fetch behavior.
type Config struct {
	UserAgent     string
	Headers       map[string]string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	MaxConns      int
}

// Fetcher implements crawler.Fetcher using a Colly collector over the shared
// Chrome-fingerprint transport. One instance is passed to all workers; its
// connection pool and rate limiter are owned fields, not globals.
type Fetcher struct {
	cfg           Config
	limiter       *RateLimiter
	transport     http.RoundTripper
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher around the given rate limiter.
func New(cfg Config, limiter *RateLimiter, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; synchronous is the default, so omit the option entirely.
	c := colly.NewCollector(colly.AllowURLRevisit())
	transport := NewTransport(cfg.MaxConns)
	c.WithTransport(transport)
	return &Fetcher{
		cfg:           cfg,
		limiter:       limiter,
		transport:     transport,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch retrieves one target, retrying transient failures up to the attempt
// budget with a fixed backoff. It acquires the shared rate limiter before
// every attempt. Exhausting the budget returns the last error; nothing
// panics across this boundary.
func (f *Fetcher) Fetch(ctx context.Context, target crawler.FetchTarget) (crawler.FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.RetryAttempts; attempt++ {
		delay := time.Duration(0)
		if attempt > 1 {
			delay = f.cfg.RetryBackoff
			if err := sleep(ctx, delay); err != nil {
				return crawler.FetchResult{}, fmt.Errorf("retry wait: %w", err)
			}
		}
		f.logger.Debug("fetch attempt",
			zap.String("url", target.URL),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if err := f.limiter.Acquire(ctx); err != nil {
			return crawler.FetchResult{}, err
		}

		target.Attempt = attempt
		result, status, err := f.fetchOnce(ctx, target)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(ctx, status) {
			break
		}
	}
	f.logger.Error("fetch attempts exhausted",
		zap.String("url", target.URL),
		zap.Int("attempts", f.cfg.RetryAttempts),
		zap.Error(lastErr),
	)
	return crawler.FetchResult{}, fmt.Errorf("fetch %s: %w", target.URL, lastErr)
}

// statusError carries the HTTP status of a non-2xx response so the retry
// loop can classify it.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d: %v", e.status, e.err) }
func (e *statusError) Unwrap() error { return e.err }

func (f *Fetcher) fetchOnce(ctx context.Context, target crawler.FetchTarget) (crawler.FetchResult, int, error) {
	var (
		result   crawler.FetchResult
		fetchErr error
		status   int
	)
	collector := f.baseCollector.Clone()
	collector.WithTransport(f.transport)
	collector.SetRequestTimeout(f.cfg.Timeout)
	// Retries revisit the same URL, and robots.txt handling stays with the
	// operator's requests-per-minute budget rather than colly.
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}

	collector.OnRequest(func(r *colly.Request) {
		for key, value := range f.cfg.Headers {
			r.Headers.Set(key, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = crawler.FetchResult{
			Target:     target,
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			FetchedAt:  time.Now(),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, target.URL, &fetchErr); err != nil {
		// On cancellation the visit goroutine may still be live and writing
		// the captured response state; return without reading it.
		if ctx.Err() != nil {
			return crawler.FetchResult{}, 0, err
		}
		if status != 0 {
			return crawler.FetchResult{}, status, &statusError{status: status, err: err}
		}
		return crawler.FetchResult{}, 0, err
	}
	return result, result.StatusCode, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response failed: %w", *fetchErr)
		}
		return nil
	}
}

// retryable classifies an attempt failure. Server errors, throttles, and
// transport errors (including per-attempt timeouts) retry; other client
// errors are terminal, as is teardown of the run context.
func retryable(ctx context.Context, status int) bool {
	if ctx.Err() != nil {
		return false
	}
	switch {
	case status == 0:
		return true // transport error or timeout, no response
	case status >= 500:
		return true
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	default:
		return status < 400 // non-2xx oddities outside 4xx/5xx
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
