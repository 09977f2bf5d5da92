package orchestrator

import (
	"github.com/reliefgrid/triage-platform/internal/metrics"
	"github.com/reliefgrid/triage-platform/internal/models"
)

func metricsPoll(source models.SourceName, status models.SourceStatus) {
	metrics.PollsTotal.WithLabelValues(string(source), string(status)).Inc()
	up := 1.0
	if status == models.SourceStatusError {
		up = 0
	}
	metrics.SourceUp.WithLabelValues(string(source)).Set(up)
}

func metricsEventsIngested(source models.SourceName, n int) {
	if n <= 0 {
		return
	}
	metrics.EventsIngestedTotal.WithLabelValues(string(source)).Add(float64(n))
}

func metricsDedupDropped(kind string, n int) {
	if n <= 0 {
		return
	}
	metrics.DedupDroppedTotal.WithLabelValues(kind).Add(float64(n))
}

func metricsCascade(step, outcome string) {
	metrics.CascadeStepTotal.WithLabelValues(step, outcome).Inc()
}

func metricsAlertDispatched(status string) {
	metrics.AlertsDispatchedTotal.WithLabelValues(status).Inc()
}

func metricsStreamSubscribers(n int) {
	metrics.StreamSubscribers.Set(float64(n))
}

func metricsAnomalyDetected(anomalyType, severity string) {
	metrics.AnomalyDetectionsTotal.WithLabelValues(anomalyType, severity).Inc()
}
