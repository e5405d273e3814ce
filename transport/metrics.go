package transport

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splists_soap_requests_total",
			Help: "Total number of SOAP requests by operation and HTTP status",
		},
		[]string{"operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splists_soap_request_duration_seconds",
			Help:    "SOAP request duration in seconds, retries included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splists_soap_retries_total",
			Help: "Total number of retried SOAP requests",
		},
		[]string{"operation"},
	)
)

// recordRequest records one attempt. A zero status means no response.
func recordRequest(operation string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(operation, label).Inc()
}

func recordDuration(operation string, start time.Time) {
	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func recordRetry(operation string) {
	retriesTotal.WithLabelValues(operation).Inc()
}
