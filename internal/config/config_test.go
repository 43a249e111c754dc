package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 4, cfg.Crawler.Workers)
	require.Equal(t, 2, cfg.Crawler.PerHostMax)
	require.Equal(t, 8, cfg.Crawler.RequestsPerMinute)
	require.Equal(t, 0, cfg.Crawler.MaxPages)

	require.Equal(t, 15*time.Second, cfg.HTTP.Timeout())
	require.Equal(t, 500*time.Millisecond, cfg.HTTP.RetryBackoff())
	require.Equal(t, 3, cfg.HTTP.RetryAttempts)
	require.Contains(t, cfg.HTTP.UserAgent, "Chrome")
	require.Contains(t, cfg.HTTP.Headers, "Accept-Language")

	require.Equal(t, []string{"Premier-League"}, cfg.Leagues)
	require.Empty(t, cfg.Metrics.Addr)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawler:
  workers: 8
  requests_per_minute: 30
http:
  timeout_seconds: 20
db:
  dsn: postgres://crawler@localhost:5432/fbstats
leagues:
  - Premier-League
  - La-Liga
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Crawler.Workers)
	require.Equal(t, 30, cfg.Crawler.RequestsPerMinute)
	require.Equal(t, 20*time.Second, cfg.HTTP.Timeout())
	require.Equal(t, "postgres://crawler@localhost:5432/fbstats", cfg.DB.DSN)
	require.Equal(t, []string{"Premier-League", "La-Liga"}, cfg.Leagues)
	// Untouched keys keep their defaults.
	require.Equal(t, 2, cfg.Crawler.PerHostMax)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawler:
  workers: 0
  requests_per_minute: -1
leagues: []
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "crawler.workers")
	require.Contains(t, err.Error(), "crawler.requests_per_minute")
	require.Contains(t, err.Error(), "leagues")
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("FBCRAWL_CRAWLER_WORKERS", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Crawler.Workers)
}
