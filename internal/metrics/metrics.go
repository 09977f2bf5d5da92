// Package metrics exposes the platform's Prometheus instrumentation:
// per-source poll counters, dedup hit/miss counts, solver invocation
// counts, and anomaly detections, all served over /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_feed_polls_total",
		Help: "Total number of feed poll cycles, labeled by source and outcome.",
	}, []string{"source", "outcome"})

	EventsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_events_ingested_total",
		Help: "Total number of ingested events persisted after dedup, labeled by source.",
	}, []string{"source"})

	DedupDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_dedup_dropped_total",
		Help: "Total number of candidate rows dropped as duplicates, labeled by kind (event|satellite).",
	}, []string{"kind"})

	CascadeStepTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_cascade_step_total",
		Help: "Total number of event cascade steps, labeled by step and outcome.",
	}, []string{"step", "outcome"})

	AlertsDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_alerts_dispatched_total",
		Help: "Total number of alert notifications dispatched, labeled by status.",
	}, []string{"status"})

	AnomalyDetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_anomaly_detections_total",
		Help: "Total number of anomaly alerts raised, labeled by anomaly type and severity.",
	}, []string{"type", "severity"})

	SolverRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_solver_runs_total",
		Help: "Total number of allocation solver invocations, labeled by status.",
	}, []string{"status"})

	SolverCoveragePct = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "triage_solver_coverage_pct",
		Help: "Coverage percentage of needs met by the most recent solver run.",
	})

	SourceUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "triage_source_up",
		Help: "Whether the most recent poll of a source succeeded (1) or failed (0).",
	}, []string{"source"})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "triage_stream_subscribers",
		Help: "Current number of subscribers attached to the disaster broadcaster.",
	})
)
