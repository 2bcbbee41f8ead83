package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace     = "gpupc"
	subsystem     = "collector"
	resultLabel   = "result"
	providerLabel = "provider"
	regionLabel   = "region"

	// ResultCompleted marks a target that returned rows. ResultEmpty marks a target that returned none, which is
	// either an empty region or a provider failure logged by its adapter. ResultFailed marks an unknown provider or
	// a panicking fetcher.
	ResultCompleted = "completed"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
)

var (
	TotalTargets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "targets_total",
			Help:      "Total number of collected provider-region targets by result.",
		},
		[]string{resultLabel, providerLabel, regionLabel},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a collection run over all targets.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	TableRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "table_rows",
			Help:      "Number of rows in the merged table of the last run.",
		},
	)
)

func RecordTarget(result, provider, region string) {
	// the order of the values should be same as defined in the metric declaration.
	TotalTargets.WithLabelValues(result, provider, region).Inc()
}

func RecordRun(duration time.Duration, rows int) {
	RunDuration.Observe(duration.Seconds())
	TableRows.Set(float64(rows))
}
