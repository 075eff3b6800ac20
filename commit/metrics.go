package commit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leavesCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jcommit",
		Name:      "leaves_committed_total",
		Help:      "Per-leaf commitments computed, by suite.",
	}, []string{"suite"})

	leafFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jcommit",
		Name:      "leaf_failures_total",
		Help:      "Per-leaf commitment failures, by rule.",
	}, []string{"rule"})

	aggregateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jcommit",
		Name:      "aggregate_duration_seconds",
		Help:      "Wall time of Aggregate calls, by result.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"result"})

	leavesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jcommit",
		Name:      "leaves_in_flight",
		Help:      "Leaves currently being committed by workers.",
	})
)

const (
	resultOK        = "ok"
	resultLeafError = "leaf_error"
	resultTimeout   = "timeout"
	resultCanceled  = "canceled"
	resultError     = "error"
)
