package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttendanceRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_records_total",
			Help: "Attendance rows written, by status and source",
		},
		[]string{"status", "source"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts, by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	SweepMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "absence_sweep_marked_total",
			Help: "Users marked absent by the end-of-day sweep",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
