package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videolake_ingest_rows_total",
			Help: "Total number of rows handled by the loader",
		},
		[]string{"table", "result"},
	)

	DefaultedTimestampsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videolake_ingest_defaulted_timestamps_total",
			Help: "Total number of timestamps that could not be parsed",
		},
		[]string{"field", "policy"},
	)

	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videolake_ingest_load_duration_seconds",
			Help:    "Duration of full loads",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)
)
