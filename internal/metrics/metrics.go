// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_reset_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "password_reset_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// operation: register/login/forgot_password/reset_password/change_password
	AuthOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_reset_api_auth_operations_total",
			Help: "Authentication operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ResetEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_reset_api_reset_emails_total",
			Help: "Password reset email deliveries by result",
		},
		[]string{"result"},
	)
)

const (
	EmailSent   = "sent"
	EmailFailed = "failed"
)

func ObserveAuth(operation, outcome string) {
	AuthOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func ObserveResetEmail(result string) {
	ResetEmailsTotal.WithLabelValues(result).Inc()
}
