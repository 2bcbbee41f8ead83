package httpclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace   = "gpupc"
	subsystem   = "http"
	clientLabel = "client"
	statusLabel = "status"
)

var Latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "request_duration_seconds",
	Help:      "Duration of requests sent to provider APIs.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
}, []string{clientLabel, statusLabel})

func recordLatency(duration time.Duration, statusCode int, client string) {
	Latency.WithLabelValues(client, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}
