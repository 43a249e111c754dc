// Package metrics exposes crawl counters on a Prometheus registry and an
// optional HTTP listener.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements crawler.Observer over Prometheus counters.
type Collector struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	records  *prometheus.CounterVec
}

// NewCollector builds a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fbcrawl",
		Name:      "fetches_total",
		Help:      "Fetch operations by terminal outcome.",
	}, []string{"outcome"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fbcrawl",
		Name:      "records_total",
		Help:      "Pipeline records by kind and outcome.",
	}, []string{"kind", "outcome"})
	registry.MustRegister(
		fetches,
		records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Collector{
		registry: registry,
		fetches:  fetches,
		records:  records,
	}
}

// FetchDone implements crawler.Observer.
func (c *Collector) FetchDone(outcome string) {
	c.fetches.WithLabelValues(outcome).Inc()
}

// RecordDone implements crawler.Observer.
func (c *Collector) RecordDone(kind, outcome string) {
	c.records.WithLabelValues(kind, outcome).Inc()
}

// NewServer wires /metrics and /healthz on addr. The caller owns the
// listener lifecycle.
func NewServer(addr string, collector *Collector) *http.Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(collector.registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
