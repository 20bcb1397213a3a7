package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	treeOperations *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	uploadBytes    prometheus.Counter
)

func registerPortalCollectors(reg *prometheus.Registry) {
	treeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_tree_operations_total",
			Help: "Tree mutations and lookups by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by method, route and status class",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	uploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_upload_bytes_total",
			Help: "Total bytes accepted through file uploads",
		},
	)
	reg.MustRegister(treeOperations, httpRequests, httpDuration, uploadBytes)
}

// ObserveOperation records one tree engine operation and its outcome.
func ObserveOperation(operation string, err error) {
	if !IsEnabled() {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	treeOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if !IsEnabled() {
		return
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveUploadBytes records bytes accepted through an upload.
func ObserveUploadBytes(n int64) {
	if !IsEnabled() || n <= 0 {
		return
	}
	uploadBytes.Add(float64(n))
}
