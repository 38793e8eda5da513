// Package metrics exposes the service's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "formfill"

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of form-fill runs, labeled by result.",
		},
		[]string{"result"}, // success | failure | aborted
	)

	FieldsFilledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_filled_total",
			Help:      "Total number of fields that reached done across all runs.",
		},
	)

	FieldErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "Total number of per-field errors across all runs.",
		},
	)

	RunDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a full form-fill run (seconds).",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ProgressSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_subscribers",
			Help:      "Current number of attached progress observers.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		FieldsFilledTotal,
		FieldErrorsTotal,
		RunDurationSeconds,
		ProgressSubscribers,
	)
}
