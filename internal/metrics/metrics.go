// Package metrics holds the Prometheus collectors exposed on the ops
// listener.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "county_health",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "county_health",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "county_health",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route"},
	)

	lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "county_health",
			Subsystem: "lookup",
			Name:      "results_total",
			Help:      "County data lookups by outcome.",
		},
		[]string{"outcome"},
	)

	cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "county_health",
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Response cache hits, misses and invalidations.",
		},
		[]string{"event"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "county_health",
			Subsystem: "ratelimit",
			Name:      "rejected_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	datasetEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "county_health",
			Subsystem: "dataset",
			Name:      "loaded_events_total",
			Help:      "dataset.loaded events received, by table.",
		},
		[]string{"table"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		lookups,
		cacheEvents,
		rateLimited,
		datasetEvents,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted bumps the in-flight gauge and returns the matching
// completion func, which records the request once its status is known.
func RequestStarted(method, route string) func(status int) {
	if route == "" {
		route = "unmatched"
	}
	start := time.Now()
	httpInFlight.Inc()
	return func(status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Lookup outcomes.
const (
	OutcomeFound      = "found"
	OutcomeNotFound   = "not_found"
	OutcomeBadRequest = "bad_request"
	OutcomeTeapot     = "teapot"
	OutcomeError      = "error"
)

// RecordLookup counts one county data lookup by outcome.
func RecordLookup(outcome string) {
	lookups.WithLabelValues(outcome).Inc()
}

// RecordCache counts a cache "hit", "miss" or "invalidate" event.
func RecordCache(event string) {
	cacheEvents.WithLabelValues(event).Inc()
}

// RecordRateLimited counts one rejected request.
func RecordRateLimited() {
	rateLimited.Inc()
}

// RecordDatasetLoaded counts one dataset.loaded event for table.
func RecordDatasetLoaded(table string) {
	datasetEvents.WithLabelValues(table).Inc()
}
