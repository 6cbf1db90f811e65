// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for the acquisition layer.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchOutcomesTotal     *prometheus.CounterVec
	fetchBytesTotal        *prometheus.CounterVec
	cacheLookupsTotal      *prometheus.CounterVec
	sourceBlocksTotal      *prometheus.CounterVec
	sourcesDegraded        *prometheus.GaugeVec
	rateLimitWaitSeconds   *prometheus.HistogramVec
	parseResultsTotal      *prometheus.CounterVec
	resolutionsTotal       *prometheus.CounterVec
	politenessDelaySeconds *prometheus.HistogramVec
	activeWorkers          prometheus.Gauge

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call more than once; every Observe helper calls it first.
func Init() {
	once.Do(func() {
		fetchOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_fetch_outcomes_total",
				Help: "Fetch outcomes, labeled by source and outcome kind.",
			},
			[]string{"source", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_fetch_bytes_total",
				Help: "Bytes transferred from the network, labeled by host.",
			},
			[]string{"host"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_cache_lookups_total",
				Help: "Cache lookups, labeled by namespace and result (hit, miss, revalidated).",
			},
			[]string{"namespace", "result"},
		)

		sourceBlocksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_source_blocks_total",
				Help: "Blocked responses, labeled by source.",
			},
			[]string{"source"},
		)

		sourcesDegraded = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvest_source_degraded",
				Help: "1 when a source's circuit breaker has tripped for this run.",
			},
			[]string{"source"},
		)

		rateLimitWaitSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_rate_limit_wait_seconds",
				Help:    "Time spent waiting for a server rate-limit reset.",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
			},
			[]string{"host"},
		)

		parseResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_parse_results_total",
				Help: "Documents parsed, labeled by winning strategy (or none).",
			},
			[]string{"strategy"},
		)

		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_affiliation_resolutions_total",
				Help: "Affiliation resolutions, labeled by method.",
			},
			[]string{"method"},
		)

		politenessDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_politeness_delay_seconds",
				Help:    "Per-host politeness waits.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"host"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_active_workers",
				Help: "Number of pool workers currently running a task.",
			},
		)
	})
}

// Host extracts a lowercase hostname from a URL, "unknown" when it has none.
func Host(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch counts one fetch outcome and the bytes it pulled over the wire.
func ObserveFetch(source, outcome, rawURL string, networkBytes int) {
	Init()
	fetchOutcomesTotal.WithLabelValues(source, outcome).Inc()
	if networkBytes > 0 {
		fetchBytesTotal.WithLabelValues(Host(rawURL)).Add(float64(networkBytes))
	}
}

// ObserveCache counts a cache lookup.
func ObserveCache(namespace, result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(namespace, result).Inc()
}

// ObserveBlock counts a blocked response and, when tripped, flags the source
// as degraded.
func ObserveBlock(source string, tripped bool) {
	Init()
	sourceBlocksTotal.WithLabelValues(source).Inc()
	if tripped {
		sourcesDegraded.WithLabelValues(source).Set(1)
	}
}

// ObserveRateLimitWait records a rate-limit sleep.
func ObserveRateLimitWait(rawURL string, d time.Duration) {
	Init()
	rateLimitWaitSeconds.WithLabelValues(Host(rawURL)).Observe(d.Seconds())
}

// ObserveParse counts a parse by the strategy that produced records.
func ObserveParse(strategy string) {
	Init()
	if strategy == "" {
		strategy = "none"
	}
	parseResultsTotal.WithLabelValues(strategy).Inc()
}

// ObserveResolution counts an affiliation resolution by method.
func ObserveResolution(method string) {
	Init()
	resolutionsTotal.WithLabelValues(method).Inc()
}

// ObservePoliteness records a per-host politeness wait.
func ObservePoliteness(host string, d time.Duration) {
	Init()
	politenessDelaySeconds.WithLabelValues(host).Observe(d.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}
