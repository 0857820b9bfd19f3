// Package metrics exposes Prometheus collectors for the Gutenberg API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis sources recorded on gutenberg_analysis_requests_total.
const (
	SourceCache = "cache"
	SourceModel = "llm"
	SourceError = "error"
)

// Archive fetch outcomes recorded on gutenberg_archive_fetches_total.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "route"},
	)

	archiveFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gutenberg_archive_fetches_total",
			Help: "Archive requests, labeled by resource (content, metadata) and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	analysisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gutenberg_analysis_requests_total",
			Help: "Analysis requests, labeled by kind and where the answer came from.",
		},
		[]string{"kind", "source"},
	)

	llmRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gutenberg_llm_request_duration_seconds",
			Help:    "Histogram of language model call latencies, labeled by kind.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"kind"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveArchiveFetch counts one archive request.
func ObserveArchiveFetch(resource, outcome string) {
	archiveFetchesTotal.WithLabelValues(resource, outcome).Inc()
}

// ObserveAnalysis counts one analysis answer by source.
func ObserveAnalysis(kind, source string) {
	analysisRequestsTotal.WithLabelValues(kind, source).Inc()
}

// ObserveLLMRequest records the duration of a language model call.
func ObserveLLMRequest(kind string, duration time.Duration) {
	llmRequestDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}
