package client

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wexapiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wexapi_requests_total",
		Help: "Total API requests by method and response status.",
	}, []string{"method", "status"})

	wexapiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wexapi_request_duration_seconds",
		Help:    "API request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	wexapiCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wexapi_cache_hits_total",
		Help: "Total JSON responses served from the response cache.",
	})
)

// recordRequest records one round trip. A zero status means the transport failed.
func recordRequest(method string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	wexapiRequestsTotal.WithLabelValues(method, label).Inc()
	wexapiRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func recordCacheHit() {
	wexapiCacheHitsTotal.Inc()
}
