// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WordPressRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wppanel_wordpress_requests_total",
			Help: "Total WordPress REST API requests by method and response status",
		},
		[]string{"method", "status"}, // status is "error" when no response was received
	)

	WordPressRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wppanel_wordpress_request_duration_seconds",
			Help:    "Duration of WordPress REST API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	EventStrategyAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wppanel_event_strategy_attempts_total",
			Help: "Attempts of each events endpoint strategy by outcome",
		},
		[]string{"strategy", "outcome"}, // outcome: success, failure
	)

	AnalyticsFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wppanel_analytics_fallbacks_total",
			Help: "Analytics reports answered with demo data instead of GA4",
		},
		[]string{"report", "reason"}, // reason: demo_mode, upstream_error, empty_report, malformed_report
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wppanel_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)
)

// RecordWordPressRequest records one upstream WordPress call. A status of 0
// means the request failed before a response arrived.
func RecordWordPressRequest(method string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	WordPressRequests.WithLabelValues(method, label).Inc()
	WordPressRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordEventStrategy records one attempt of a named events strategy.
func RecordEventStrategy(strategy string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	EventStrategyAttempts.WithLabelValues(strategy, outcome).Inc()
}
