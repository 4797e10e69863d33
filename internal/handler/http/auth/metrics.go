package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authRequestsTotal counts credential exchanges by endpoint and result.
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total register/login requests by endpoint and result",
		},
		[]string{"endpoint", "result"}, // result: success | failure
	)

	authDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_duration_seconds",
			Help:    "Register/login duration (dominated by bcrypt)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"endpoint"},
	)

	// tokenRejections counts bearer tokens refused by the middleware.
	tokenRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_rejections_total",
			Help: "Bearer tokens rejected by reason",
		},
		[]string{"reason"}, // missing | invalid
	)
)

// RecordAuthRequest records a register or login outcome.
func RecordAuthRequest(endpoint string, success bool, durationSeconds float64) {
	result := "success"
	if !success {
		result = "failure"
	}
	authRequestsTotal.WithLabelValues(endpoint, result).Inc()
	authDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

func recordRejection(reason string) {
	tokenRejections.WithLabelValues(reason).Inc()
}
