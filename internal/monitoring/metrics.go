package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRunsTotal counts pipeline runs by initial method and outcome.
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivestyle_pipeline_runs_total",
			Help: "Total number of clustering pipeline runs",
		},
		[]string{"method", "status"},
	)

	// PipelineDurationSeconds measures end-to-end pipeline latency.
	PipelineDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivestyle_pipeline_duration_seconds",
			Help:    "Duration of clustering pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"method"},
	)

	// DegenerateSplitsTotal counts recluster splits that left one side empty.
	DegenerateSplitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivestyle_degenerate_splits_total",
			Help: "Total number of recluster splits that produced an empty sub-group",
		},
	)

	// WindowsIngestedTotal counts feature windows written to the store.
	WindowsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivestyle_windows_ingested_total",
			Help: "Total number of feature windows stored",
		},
		[]string{"origin"},
	)
)
