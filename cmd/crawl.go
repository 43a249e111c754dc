package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fbstats/fbref-crawler/internal/config"
	"github.com/fbstats/fbref-crawler/internal/crawler"
	"github.com/fbstats/fbref-crawler/internal/extract/fbref"
	"github.com/fbstats/fbref-crawler/internal/fetch"
	"github.com/fbstats/fbref-crawler/internal/logging"
	"github.com/fbstats/fbref-crawler/internal/metrics"
	"github.com/fbstats/fbref-crawler/internal/pipeline"
	"github.com/fbstats/fbref-crawler/internal/storage/postgres"
)

func newCrawlCmd() *cobra.Command {
	var leagueNames []string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl over the configured leagues.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if len(leagueNames) == 0 {
				leagueNames = cfg.Leagues
			}
			return runCrawl(cmd.Context(), cfg, leagueNames)
		},
	}
	cmd.Flags().StringSliceVar(&leagueNames, "league", nil,
		"league to crawl in URL form, e.g. Premier-League (repeatable; overrides config)")
	return cmd
}

func runCrawl(ctx context.Context, cfg config.Config, leagueNames []string) error {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	leagues := make([]fbref.League, 0, len(leagueNames))
	for _, name := range leagueNames {
		league, ok := fbref.LeagueByName(name)
		if !ok {
			return fmt.Errorf("unknown league %q", name)
		}
		leagues = append(leagues, league)
	}

	store, err := postgres.NewStore(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	collector := metrics.NewCollector()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, collector)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	limiter := fetch.NewRateLimiter(cfg.Crawler.RequestsPerMinute)
	fetcher := fetch.New(fetch.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		Headers:       cfg.HTTP.Headers,
		Timeout:       cfg.HTTP.Timeout(),
		RetryAttempts: cfg.HTTP.RetryAttempts,
		RetryBackoff:  cfg.HTTP.RetryBackoff(),
		MaxConns:      cfg.HTTP.MaxConns,
	}, limiter, logger)

	chain := pipeline.NewChain(logger,
		pipeline.NewCleaning(),
		pipeline.NewValidation(),
		pipeline.NewPersistence(store),
	)

	c := crawler.New(fetcher, fbref.New(), chain, crawler.Config{
		Workers:    cfg.Crawler.Workers,
		PerHostMax: cfg.Crawler.PerHostMax,
		MaxPages:   cfg.Crawler.MaxPages,
	}, logger, collector)

	_, err = c.Run(ctx, fbref.SeedTargets(leagues))
	if errors.Is(err, context.Canceled) {
		// Operator interrupt; the summary has already been logged.
		return nil
	}
	return err
}
