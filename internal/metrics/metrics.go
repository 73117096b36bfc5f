// Package metrics provides Prometheus metrics for the post-processing
// pipeline: per-residue projections, PCA derivations, artifact fetches
// and report writes, exposed via the /metrics endpoint in cmd/mdpost.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Core processing metrics
	AggregationsTotal   prometheus.Counter   // Per-residue projections completed
	DerivationFailures  prometheus.Counter   // Importance derivations or aggregations that failed
	AggregationDuration prometheus.Histogram // Duration of one projection in seconds
	ResiduesPerRun      prometheus.Histogram // Residues covered by one projection

	// Artifact metrics
	ArtifactFetches     prometheus.Counter // Artifacts fetched from the training service
	ArtifactFetchErrors prometheus.Counter // Failed artifact fetches
	WatchReconnects     prometheus.Counter // Artifact-stream reconnections

	// Report metrics
	ReportsWritten    prometheus.Counter // CSV reports published
	ReportWriteErrors prometheus.Counter // CSV reports that failed to publish
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, so tests can
// collect in isolation without touching the global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		AggregationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_aggregations_total",
			Help: "Total number of per-residue projections completed",
		}),
		DerivationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_derivation_failures_total",
			Help: "Total number of failed importance derivations or aggregations",
		}),
		AggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mdpost_aggregation_duration_seconds",
			Help:    "Duration of one per-residue projection",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		ResiduesPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mdpost_residues_per_run",
			Help:    "Residues covered by one per-residue projection",
			Buckets: prometheus.ExponentialBuckets(8, 2, 10),
		}),
		ArtifactFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_artifact_fetches_total",
			Help: "Total number of artifacts fetched from the training service",
		}),
		ArtifactFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_artifact_fetch_errors_total",
			Help: "Total number of failed artifact fetches",
		}),
		WatchReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_watch_reconnects_total",
			Help: "Total number of artifact-stream reconnections",
		}),
		ReportsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_reports_written_total",
			Help: "Total number of CSV reports published",
		}),
		ReportWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdpost_report_write_errors_total",
			Help: "Total number of CSV reports that failed to publish",
		}),
	}
}
