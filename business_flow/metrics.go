package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking computations partitioned by period kind and data origin
	rankingComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_compute_duration_seconds",
			Help:    "Time spent computing a ranking",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period", "source"},
	)

	rankingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_cache_lookups_total",
			Help: "Ranking cache lookups partitioned by result",
		},
		[]string{"result"},
	)

	rankingFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_demo_fallbacks_total",
			Help: "Rankings served from the demo dataset",
		},
	)

	// Upload rows partitioned by kind and outcome
	uploadRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_rows_total",
			Help: "Rows processed by uploads",
		},
		[]string{"kind", "outcome"},
	)

	uploadCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_commits_total",
			Help: "Committed uploads partitioned by kind",
		},
		[]string{"kind"},
	)
)

func observeUpload(kind string, counts map[string]int) {
	for outcome, n := range counts {
		if n > 0 {
			uploadRows.WithLabelValues(kind, outcome).Add(float64(n))
		}
	}
}
