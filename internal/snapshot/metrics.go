package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rebuildTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_rebuild_total",
			Help: "Total number of snapshot rebuilds by outcome.",
		},
		[]string{"status"},
	)

	filesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_files_written_total",
			Help: "Total number of snapshot artifacts written.",
		},
	)

	buildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_build_duration_seconds",
			Help:    "Duration of snapshot rebuilds in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)
