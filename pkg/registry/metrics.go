package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factsd_collector_invocations_total",
			Help: "Total number of collector invocations",
		},
		[]string{"collector", "status"}, // status: success, error, unknown
	)

	invocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factsd_collector_duration_seconds",
			Help:    "Time taken by individual collector invocations",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"collector"},
	)

	enumerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factsd_enumeration_total",
			Help: "Total number of descriptor enumeration calls",
		},
		[]string{"status"},
	)
)
