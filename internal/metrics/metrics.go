// Package metrics exposes Prometheus instrumentation for the refresh loop
// and the published datasets.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "c2c_refresh_cycles_total",
		Help: "The total number of refresh cycles by outcome",
	}, []string{"status"})
	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "c2c_refresh_duration_seconds",
		Help:    "Wall time of a full refresh cycle",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	datasetRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "c2c_dataset_rows",
		Help: "Data rows in the published snapshot per dataset",
	}, []string{"dataset"})
	lastSuccessTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "c2c_last_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})
)

// ObserveCycle records one finished refresh cycle.
func ObserveCycle(status string, duration time.Duration) {
	refreshCyclesTotal.WithLabelValues(status).Inc()
	refreshDuration.Observe(duration.Seconds())
}

// SetDatasetRows publishes the data row count of one dataset.
func SetDatasetRows(dataset string, rows int) {
	datasetRows.WithLabelValues(dataset).Set(float64(rows))
}

// MarkSuccess stamps the time of the last successful refresh.
func MarkSuccess(at time.Time) {
	lastSuccessTime.Set(float64(at.Unix()))
}
