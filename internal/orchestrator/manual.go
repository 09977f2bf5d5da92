package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

// SourceStatus is one feed's manual-trigger-surface snapshot.
type SourceStatus struct {
	Name         string
	Type         string
	Active       bool
	LastPolledAt *time.Time
	Status       string
	Error        string
	IntervalS    int
}

// Status is the orchestrator's aggregate health snapshot.
type Status struct {
	Running bool
	Sources []SourceStatus
}

// Status reports whether the orchestrator is running plus the
// registry row for every feed it knows about.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	sources, err := o.store.ListSources(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("list sources: %w", err)
	}

	out := Status{Running: o.IsRunning(), Sources: make([]SourceStatus, 0, len(sources))}
	for _, s := range sources {
		out.Sources = append(out.Sources, SourceStatus{
			Name:         string(s.SourceName),
			Type:         s.SourceType,
			Active:       s.IsActive,
			LastPolledAt: s.LastPolledAt,
			Status:       string(s.LastStatus),
			Error:        s.LastError,
			IntervalS:    s.PollIntervalS,
		})
	}
	return out, nil
}

// PollSource runs one immediate, out-of-band poll of the named feed
// and returns how many new rows it persisted. It shares the same
// dedup/cascade-dispatch path the periodic loop uses, so a manually
// triggered poll behaves identically to a scheduled one.
func (o *Orchestrator) PollSource(ctx context.Context, name models.SourceName) (int, error) {
	switch name {
	case models.SourceUSGS:
		return o.pollEventSourceOnce(ctx, name, "geophysical", o.cfg.Sources.USGSURL, o.cfg.Sources.USGSPollInterval, o.pollUSGSOnce)
	case models.SourceGDACS:
		return o.pollEventSourceOnce(ctx, name, "humanitarian", o.cfg.Sources.GDACSURL, o.cfg.Sources.GDACSPollInterval, o.pollGDACSOnce)
	case models.SourceSocialMedia:
		return o.pollEventSourceOnce(ctx, name, "social", "", o.cfg.Sources.SocialPollInterval, o.pollSocialOnce)
	case models.SourceNASAFIRMS:
		return o.pollSatelliteOnce(ctx)
	case models.SourceOpenWeatherMap:
		return o.pollWeatherOnce(ctx)
	default:
		return 0, fmt.Errorf("unknown source %q", name)
	}
}

func (o *Orchestrator) pollEventSourceOnce(ctx context.Context, name models.SourceName, sourceType, baseURL string, interval time.Duration, poll eventPollFunc) (int, error) {
	reg, err := o.store.GetOrCreateSource(ctx, name, sourceType, baseURL, int(interval.Seconds()))
	if err != nil {
		return 0, err
	}

	candidates, err := poll(ctx)
	o.recordPollOutcome(ctx, reg, err)
	if err != nil {
		return 0, err
	}
	for i, c := range candidates {
		candidates[i] = newEventID(reg.ID, c)
	}

	fresh, err := o.dedup.Events(ctx, reg.ID, candidates)
	if err != nil {
		return 0, err
	}
	metricsEventsIngested(reg.SourceName, len(fresh))
	metricsDedupDropped("event", len(candidates)-len(fresh))

	for _, ev := range fresh {
		if isDisasterRelevant(ev) {
			if o.pool != nil {
				o.pool.Submit(ev)
			} else {
				o.runCascade(ctx, ev)
			}
		}
	}
	return len(fresh), nil
}

func (o *Orchestrator) pollSatelliteOnce(ctx context.Context) (int, error) {
	reg, err := o.store.GetOrCreateSource(ctx, models.SourceNASAFIRMS, "satellite", o.cfg.Sources.FIRMSBaseURL, int(o.cfg.Sources.FIRMSPollInterval.Seconds()))
	if err != nil {
		return 0, err
	}
	candidates, err := o.firms.Poll(ctx)
	o.recordPollOutcome(ctx, reg, err)
	if err != nil {
		return 0, err
	}
	for i := range candidates {
		if candidates[i].ID == "" {
			candidates[i].ID = uuid.NewString()
		}
		if candidates[i].CreatedAt.IsZero() {
			candidates[i].CreatedAt = time.Now().UTC()
		}
	}
	fresh, err := o.dedup.SatelliteObservations(ctx, candidates)
	if err != nil {
		return 0, err
	}
	metricsDedupDropped("satellite", len(candidates)-len(fresh))
	return len(fresh), nil
}

func (o *Orchestrator) pollWeatherOnce(ctx context.Context) (int, error) {
	reg, err := o.store.GetOrCreateSource(ctx, models.SourceOpenWeatherMap, "weather", o.cfg.Sources.WeatherURL, int(o.cfg.Sources.WeatherPollInterval.Seconds()))
	if err != nil {
		return 0, err
	}
	locations, err := o.store.TrackedLocations(ctx)
	if err != nil {
		return 0, err
	}
	obs, err := o.weather.Poll(ctx, locations)
	o.recordPollOutcome(ctx, reg, err)
	if err != nil {
		return 0, err
	}
	for i := range obs {
		if err := o.store.InsertWeatherObservation(ctx, &obs[i]); err != nil {
			return 0, err
		}
	}
	metricsEventsIngested(reg.SourceName, len(obs))
	return len(obs), nil
}
