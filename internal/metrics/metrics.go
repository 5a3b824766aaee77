// Package metrics holds the Prometheus collectors shared by the HTTP layer
// and the account services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests by route template and status.
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// StatusCategoryCounter groups responses into 2xx/3xx/4xx/5xx.
	StatusCategoryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category",
		},
		[]string{"category"},
	)

	// AccountOutcomes counts reconciliation results per operation.
	AccountOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_reconciliation_total",
			Help: "Account operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// ProviderRequests counts calls to the Kakao identity provider.
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kakao_provider_requests_total",
			Help: "Kakao OAuth calls by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	// ProviderDuration records how long each Kakao call took.
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kakao_provider_request_duration_seconds",
			Help:    "Duration of Kakao OAuth calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
)

// StatusCategory maps an HTTP status to its class label, or "" for 1xx and unknown codes.
func StatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
