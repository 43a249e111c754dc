// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob the crawler consumes.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Leagues []string      `mapstructure:"leagues"`
}

// CrawlerConfig bounds the run loop.
type CrawlerConfig struct {
	Workers           int `mapstructure:"workers"`
	PerHostMax        int `mapstructure:"per_host_max"`
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	MaxPages          int `mapstructure:"max_pages"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	RetryAttempts  int               `mapstructure:"retry_attempts"`
	RetryBackoffMs int               `mapstructure:"retry_backoff_ms"`
	MaxConns       int               `mapstructure:"max_conns"`
	UserAgent      string            `mapstructure:"user_agent"`
	Headers        map[string]string `mapstructure:"headers"`
}

// Timeout returns the per-attempt request timeout.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the fixed delay between attempts.
func (c HTTPConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// DBConfig controls the Postgres pool.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// MetricsConfig controls the optional metrics listener. Empty addr disables
// it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from the optional file at path plus environment
// overrides (FBCRAWL_ prefix, dots as underscores).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FBCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.workers", 4)
	v.SetDefault("crawler.per_host_max", 2)
	v.SetDefault("crawler.requests_per_minute", 8)
	v.SetDefault("crawler.max_pages", 0)

	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.retry_attempts", 3)
	v.SetDefault("http.retry_backoff_ms", 500)
	v.SetDefault("http.max_conns", 4)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 15_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36")
	v.SetDefault("http.headers", map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})

	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")

	v.SetDefault("leagues", []string{"Premier-League"})
}

// Validate rejects configurations the crawl core cannot honor.
func (c Config) Validate() error {
	var errs []error
	if c.Crawler.Workers <= 0 {
		errs = append(errs, fmt.Errorf("crawler.workers must be positive, got %d", c.Crawler.Workers))
	}
	if c.Crawler.RequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("crawler.requests_per_minute must be positive, got %d", c.Crawler.RequestsPerMinute))
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds))
	}
	if c.HTTP.RetryAttempts <= 0 {
		errs = append(errs, fmt.Errorf("http.retry_attempts must be positive, got %d", c.HTTP.RetryAttempts))
	}
	if len(c.Leagues) == 0 {
		errs = append(errs, errors.New("leagues must name at least one competition"))
	}
	return errors.Join(errs...)
}
