// Package metrics provides Prometheus metrics export for the routing engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
)

// PrometheusExporter exports routing metrics in Prometheus format. It
// implements routing.MetricsRecorder.
type PrometheusExporter struct {
	registry *prometheus.Registry

	decisions          *prometheus.CounterVec
	decisionLatency    *prometheus.HistogramVec
	classifierFailures prometheus.Counter
	bypassMatches      prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aynux",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Total routing decisions by strategy and domain",
		},
		[]string{"strategy", "domain"},
	)

	e.decisionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aynux",
			Subsystem: "router",
			Name:      "decision_latency_seconds",
			Help:      "Routing decision latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"strategy"},
	)

	e.classifierFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aynux",
			Subsystem: "router",
			Name:      "classifier_failures_total",
			Help:      "Total LLM classifier failures absorbed by the fallback",
		},
	)

	e.bypassMatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aynux",
			Subsystem: "router",
			Name:      "bypass_matches_total",
			Help:      "Total messages routed by a tenant bypass rule",
		},
	)

	e.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aynux",
			Subsystem: "router",
			Name:      "decision_cache_hits_total",
			Help:      "Total decision cache hits",
		},
	)

	e.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aynux",
			Subsystem: "router",
			Name:      "decision_cache_misses_total",
			Help:      "Total decision cache misses",
		},
	)

	registry.MustRegister(
		e.decisions,
		e.decisionLatency,
		e.classifierFailures,
		e.bypassMatches,
		e.cacheHits,
		e.cacheMisses,
	)

	return e
}

// ObserveDecision records one routed decision and its latency.
func (e *PrometheusExporter) ObserveDecision(strategy routing.Strategy, domain string, seconds float64) {
	e.decisions.WithLabelValues(string(strategy), domain).Inc()
	e.decisionLatency.WithLabelValues(string(strategy)).Observe(seconds)
}

// IncClassifierFailure records one absorbed classifier failure.
func (e *PrometheusExporter) IncClassifierFailure() {
	e.classifierFailures.Inc()
}

// IncBypassMatch records one bypass rule hit.
func (e *PrometheusExporter) IncBypassMatch() {
	e.bypassMatches.Inc()
}

// IncCacheHit records one decision cache hit.
func (e *PrometheusExporter) IncCacheHit() {
	e.cacheHits.Inc()
}

// IncCacheMiss records one decision cache miss.
func (e *PrometheusExporter) IncCacheMiss() {
	e.cacheMisses.Inc()
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

var _ routing.MetricsRecorder = (*PrometheusExporter)(nil)
