// Package metrics registers the Prometheus instruments maintained by the
// resolution pipeline. Exposition is left to the embedding process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts provider fetch attempts by provider and result
	// (ok, http_status, transport, decode, circuit_open, canceled).
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportsettle",
		Subsystem: "fetch",
		Name:      "requests_total",
		Help:      "Provider fetch attempts by result",
	}, []string{"provider", "result"})

	// FetchDuration observes end-to-end fetch latency per provider,
	// including retries.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sportsettle",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Provider fetch latency including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	// BreakerOpens counts breaker open transitions per host.
	BreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportsettle",
		Subsystem: "circuit",
		Name:      "opens_total",
		Help:      "Circuit breaker open transitions by host",
	}, []string{"host"})

	// Resolutions counts pipeline outcomes by pipeline (outcome, statistic,
	// none) and result (resolved, insufficient_data).
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportsettle",
		Subsystem: "resolve",
		Name:      "resolutions_total",
		Help:      "Resolution outcomes by pipeline and result",
	}, []string{"pipeline", "result"})

	// CacheHits counts payload cache hits and misses.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportsettle",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Payload cache lookups by result",
	}, []string{"result"})
)
