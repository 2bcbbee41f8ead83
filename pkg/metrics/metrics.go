package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace     = "gpupc"
	subsystem     = "provider"
	providerLabel = "provider"
	regionLabel   = "region"
	successLabel  = "success"
	reasonLabel   = "reason"
)

// Reasons for skipping a catalog record.
const (
	ReasonEmptyInstanceType = "empty_instance_type"
	ReasonUnparsableGPU     = "unparsable_gpu"
	ReasonNoGPU             = "no_gpu"
)

var (
	Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fetches_total",
		Help:      "Total number of catalog fetches per provider.",
	}, []string{successLabel, providerLabel, regionLabel})

	Instances = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "instances_total",
		Help:      "Number of standardized GPU instance types returned by the last fetch.",
	}, []string{providerLabel, regionLabel})

	Skipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "skipped_records_total",
		Help:      "Total number of catalog records dropped during normalization.",
	}, []string{providerLabel, reasonLabel})

	PriceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "price_failures_total",
		Help:      "Total number of price lookups that failed and left the quotes unknown.",
	}, []string{providerLabel})
)

func RecordFetch(success bool, provider, region string) {
	// the order of the values should be same as defined in the metric declaration.
	Fetches.WithLabelValues(strconv.FormatBool(success), provider, region).Inc()
}

func RecordInstances(provider, region string, count int) {
	Instances.WithLabelValues(provider, region).Set(float64(count))
}

func RecordSkipped(provider, reason string) {
	Skipped.WithLabelValues(provider, reason).Inc()
}

func RecordPriceFailure(provider string) {
	PriceFailures.WithLabelValues(provider).Inc()
}
