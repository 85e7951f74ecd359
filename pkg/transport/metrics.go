// Package transport holds what the REST and gRPC executors share.
package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_client_requests_total",
		Help: "Executed API requests by protocol, method id and outcome.",
	}, []string{"protocol", "method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discovery_client_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"protocol", "method"})

	throttledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_client_throttle_wait_seconds_total",
		Help: "Time spent waiting on the client-side rate limiter.",
	}, []string{"protocol"})
)

// ObserveCall records one executed request. code is the HTTP status, the
// gRPC code name, or "error" when no response arrived.
func ObserveCall(protocol, method, code string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(protocol, method, code).Inc()
	requestDuration.WithLabelValues(protocol, method).Observe(elapsed.Seconds())
}

// ObserveThrottle records time spent blocked on a rate limiter.
func ObserveThrottle(protocol string, waited time.Duration) {
	if waited > 0 {
		throttledTotal.WithLabelValues(protocol).Add(waited.Seconds())
	}
}
