// Package metrics exposes Prometheus collectors for the report pipeline.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeCached     = "cached"
	OutcomeDownloaded = "downloaded"
	OutcomeAbsent     = "absent"
	OutcomeFailed     = "failed"
)

var (
	fetchTotal           *prometheus.CounterVec
	fetchBytesTotal      *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	rowsTotal            *prometheus.CounterVec
	artifactsTotal       prometheus.Counter

	registry *prometheus.Registry
	once     sync.Once
)

// Init initializes the Prometheus collectors on a dedicated registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		fetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelreport_fetch_total",
				Help: "Fetch targets processed, labeled by product and outcome.",
			},
			[]string{"product", "outcome"},
		)

		fetchBytesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelreport_fetch_bytes_total",
				Help: "Bytes downloaded, labeled by product.",
			},
			[]string{"product"},
		)

		fetchDurationSeconds = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuelreport_fetch_duration_seconds",
				Help:    "Histogram of download latencies, labeled by product.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"product"},
		)

		rowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelreport_rows_total",
				Help: "Rows read by the normalizer, labeled by product and status (kept or drop reason).",
			},
			[]string{"product", "status"},
		)

		artifactsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fuelreport_artifacts_total",
				Help: "Chart artifacts written.",
			},
		)

		registry.MustRegister(fetchTotal, fetchBytesTotal, fetchDurationSeconds, rowsTotal, artifactsTotal)
	})
}

// Registry returns the registry holding the pipeline collectors.
func Registry() *prometheus.Registry {
	Init()
	return registry
}

// ObserveFetch records one processed fetch target.
func ObserveFetch(product, outcome string, bytesFetched int, duration time.Duration) {
	Init()
	fetchTotal.WithLabelValues(product, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(product).Add(float64(bytesFetched))
	}
	if outcome != OutcomeCached {
		fetchDurationSeconds.WithLabelValues(product).Observe(duration.Seconds())
	}
}

// ObserveRows adds n rows with the given status.
func ObserveRows(product, status string, n int) {
	Init()
	if n <= 0 {
		return
	}
	rowsTotal.WithLabelValues(product, status).Add(float64(n))
}

// ObserveArtifact increments the artifact counter.
func ObserveArtifact() {
	Init()
	artifactsTotal.Inc()
}

// Push sends the current values to a Pushgateway. An empty url is a no-op.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(Registry()).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
