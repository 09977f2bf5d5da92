package orchestrator

import (
	"context"
	"log/slog"
	"time"
)

// runAnomalyLoop is a sixth independent task, cancelled the same way
// as the feed loops: cooperative, via ctx.Done rather than a separate
// flag, since context cancellation already gives callers exactly that
// behavior.
func (o *Orchestrator) runAnomalyLoop(ctx context.Context) {
	defer o.wg.Done()

	run := func() {
		alerts, err := o.anomalyDetector.RunDetection(ctx)
		if err != nil {
			slog.Error("anomaly detection failed", "error", err)
			return
		}
		for _, a := range alerts {
			metricsAnomalyDetected(string(a.AnomalyType), string(a.Severity))
		}
		if len(alerts) > 0 {
			slog.Info("anomaly detection found alerts", "count", len(alerts))
		}
	}
	run()

	ticker := time.NewTicker(o.cfg.Anomaly.DetectionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
