package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	runtimeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qpuctl",
			Subsystem: "runtime",
			Name:      "requests_total",
			Help:      "Total quantum runtime API requests.",
		},
		[]string{"endpoint", "status"},
	)
	runtimeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qpuctl",
			Subsystem: "runtime",
			Name:      "request_duration_seconds",
			Help:      "Quantum runtime API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)
	jobWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qpuctl",
			Subsystem: "job",
			Name:      "wait_seconds",
			Help:      "Time spent blocked waiting for remote job completion.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		},
		[]string{"backend", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(runtimeRequests, runtimeDuration, jobWaitDuration)
	})
}

func RecordRuntimeRequest(endpoint string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	runtimeRequests.WithLabelValues(endpoint, statusLabel).Inc()
	runtimeDuration.WithLabelValues(endpoint, statusLabel).Observe(duration.Seconds())
}

func RecordJobWait(backend, outcome string, duration time.Duration) {
	RegisterMetrics()
	jobWaitDuration.WithLabelValues(backend, outcome).Observe(duration.Seconds())
}
