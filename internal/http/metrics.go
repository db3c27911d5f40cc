package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hishab_entries_recorded_total",
		Help: "Entries accepted into the event store, by kind.",
	}, []string{"kind"})

	entriesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hishab_entries_rejected_total",
		Help: "Entry writes rejected, by reason.",
	}, []string{"reason"})

	settlementsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hishab_settlements_computed_total",
		Help: "Settlement computations served.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hishab_http_request_duration_seconds",
		Help:    "HTTP request latency by path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
)
