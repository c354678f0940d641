// Package metrics provides Prometheus metrics for the pipeline service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	StageRunsTotal  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	StorageOpsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		StageRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_runs_total",
				Help: "Total number of stage runs by stage and status.",
			},
			[]string{"stage", "status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Stage run duration by stage.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_retries_total",
				Help: "Total number of stage retries by error type.",
			},
			[]string{"error_type"},
		),
		StorageOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_storage_ops_total",
				Help: "Total storage operations by operation and status.",
			},
			[]string{"op", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(m.StageRunsTotal)
	reg.MustRegister(m.StageDuration)
	reg.MustRegister(m.RetriesTotal)
	reg.MustRegister(m.StorageOpsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordStageRun increments the stage-run counter.
func (m *Metrics) RecordStageRun(stage, status string) {
	m.StageRunsTotal.WithLabelValues(stage, status).Inc()
}

// ObserveStageDuration records a stage run duration in seconds.
func (m *Metrics) ObserveStageDuration(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRetry increments the retry counter for an error type.
func (m *Metrics) RecordRetry(errorType string) {
	m.RetriesTotal.WithLabelValues(errorType).Inc()
}

// RecordStorageOp increments the storage operation counter.
func (m *Metrics) RecordStorageOp(op, status string) {
	m.StorageOpsTotal.WithLabelValues(op, status).Inc()
}
