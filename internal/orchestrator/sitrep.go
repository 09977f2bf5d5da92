package orchestrator

import (
	"context"
	"log/slog"
	"time"
)

// runSitrepLoop wakes once a day at the configured UTC hour and
// generates a situation report. A generation failure backs off to an
// hourly retry rather than waiting for the next day.
func (o *Orchestrator) runSitrepLoop(ctx context.Context) {
	defer o.wg.Done()
	if o.sitrepGenerator == nil {
		return
	}

	for {
		wait := nextSitrepDelay(time.Now().UTC(), o.cfg.Sitrep.CronHourUTC)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := o.sitrepGenerator.Generate(ctx, "daily", "system"); err != nil {
			slog.Error("sitrep generation failed, retrying in an hour", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Hour):
			}
		}
	}
}

// nextSitrepDelay computes the wait until the next occurrence of
// hourUTC, today if it hasn't passed yet or tomorrow otherwise.
func nextSitrepDelay(now time.Time, hourUTC int) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !target.After(now) {
		target = target.Add(24 * time.Hour)
	}
	return target.Sub(now)
}
