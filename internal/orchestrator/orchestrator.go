// Package orchestrator owns the five independent feed loops, the
// anomaly-detection loop, and the daily sitrep cron, wiring each
// disaster-relevant ingested event through the cascade that turns it
// into a Disaster, a set of Predictions, and (when warranted) an
// alert notification and a stream broadcast. It generalizes the
// teacher's ingestion manager from one poller dispatching one disaster
// job per cycle into five pollers dispatching cascade jobs through a
// shared worker pool.
package orchestrator

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/alerts"
	"github.com/reliefgrid/triage-platform/internal/anomaly"
	"github.com/reliefgrid/triage-platform/internal/config"
	"github.com/reliefgrid/triage-platform/internal/ingestion"
	"github.com/reliefgrid/triage-platform/internal/ingestion/dedup"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/prediction"
	"github.com/reliefgrid/triage-platform/internal/sitrep"
	"github.com/reliefgrid/triage-platform/internal/store"
	"github.com/reliefgrid/triage-platform/internal/stream"
	"github.com/reliefgrid/triage-platform/internal/worker"
)

const maxLastErrorLen = 500

// Orchestrator coordinates every background task that keeps the
// platform's data current: feed polling, the ingestion cascade,
// anomaly detection, and the daily situation report.
type Orchestrator struct {
	cfg   *config.Config
	store *store.Store
	dedup *dedup.Deduplicator

	predictor       prediction.Client
	alertDispatcher *alerts.Dispatcher
	anomalyDetector *anomaly.Detector
	broadcaster     *stream.Broadcaster
	sitrepGenerator *sitrep.Generator

	usgs    *ingestion.USGSAdapter
	gdacs   *ingestion.GDACSAdapter
	firms   *ingestion.FIRMSAdapter
	weather *ingestion.OpenWeatherMapAdapter
	social  *ingestion.SocialAdapter

	pool *worker.WorkerPool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires an Orchestrator from its already-constructed dependencies.
func New(
	cfg *config.Config,
	st *store.Store,
	predictor prediction.Client,
	alertDispatcher *alerts.Dispatcher,
	anomalyDetector *anomaly.Detector,
	broadcaster *stream.Broadcaster,
	sitrepGenerator *sitrep.Generator,
	usgs *ingestion.USGSAdapter,
	gdacs *ingestion.GDACSAdapter,
	firms *ingestion.FIRMSAdapter,
	weather *ingestion.OpenWeatherMapAdapter,
	social *ingestion.SocialAdapter,
) *Orchestrator {
	return &Orchestrator{
		cfg:             cfg,
		store:           st,
		dedup:           dedup.New(st, st),
		predictor:       predictor,
		alertDispatcher: alertDispatcher,
		anomalyDetector: anomalyDetector,
		broadcaster:     broadcaster,
		sitrepGenerator: sitrepGenerator,
		usgs:            usgs,
		gdacs:           gdacs,
		firms:           firms,
		weather:         weather,
		social:          social,
	}
}

// Start launches every enabled feed loop, the anomaly loop, and the
// sitrep cron as independent goroutines against a derived,
// cancellable context. Calling Start twice is a no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true
	o.mu.Unlock()

	processor := func(ctx context.Context, job worker.Job) error {
		ev := job.(models.IngestedEvent)
		o.runCascade(ctx, ev)
		return nil
	}
	o.pool = worker.NewWorkerPool(o.cfg.Worker.Count, o.cfg.Worker.BufferSize, processor)
	o.pool.Start(runCtx)

	if o.cfg.Sources.USGSEnabled {
		o.wg.Add(1)
		go o.runEventLoop(runCtx, models.SourceUSGS, "geophysical", o.cfg.Sources.USGSURL,
			o.cfg.Sources.USGSPollInterval, o.pollUSGSOnce)
	}
	if o.cfg.Sources.GDACSEnabled {
		o.wg.Add(1)
		go o.runEventLoop(runCtx, models.SourceGDACS, "humanitarian", o.cfg.Sources.GDACSURL,
			o.cfg.Sources.GDACSPollInterval, o.pollGDACSOnce)
	}
	if o.cfg.Sources.SocialEnabled {
		o.wg.Add(1)
		go o.runEventLoop(runCtx, models.SourceSocialMedia, "social", "",
			o.cfg.Sources.SocialPollInterval, o.pollSocialOnce)
	}
	if o.cfg.Sources.FIRMSEnabled {
		o.wg.Add(1)
		go o.runSatelliteLoop(runCtx, o.cfg.Sources.FIRMSPollInterval)
	}
	if o.cfg.Sources.WeatherEnabled {
		o.wg.Add(1)
		go o.runWeatherLoop(runCtx, o.cfg.Sources.WeatherPollInterval)
	}

	o.wg.Add(1)
	go o.runAnomalyLoop(runCtx)

	o.wg.Add(1)
	go o.runSitrepLoop(runCtx)

	slog.Info("orchestrator started")
}

// Stop cancels every running task and blocks until each one has
// acknowledged the cancellation.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel := o.cancel
	o.running = false
	o.mu.Unlock()

	cancel()
	o.wg.Wait()
	if o.pool != nil {
		o.pool.Stop()
	}
	slog.Info("orchestrator stopped")
}

// IsRunning reports whether Start has been called without a matching
// Stop.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// eventPollFunc is the shape every event-producing feed's one-shot
// poll implements, letting runEventLoop stay source-agnostic.
type eventPollFunc func(ctx context.Context) ([]models.IngestedEvent, error)

// newEventID stamps the bookkeeping fields dedup.Events and the
// cascade expect but adapters don't set, since adapters only know
// their own external shape.
func newEventID(sourceID string, e models.IngestedEvent) models.IngestedEvent {
	e.ID = uuid.NewString()
	e.SourceID = sourceID
	if e.IngestedAt.IsZero() {
		e.IngestedAt = time.Now().UTC()
	}
	return e
}

// runEventLoop self-registers the source, then runs poll → dedup →
// cascade-dispatch → sleep forever, matching the orchestrator's
// serial per-feed contract: no overlapping in-flight polls for the
// same source.
func (o *Orchestrator) runEventLoop(ctx context.Context, name models.SourceName, sourceType, baseURL string, interval time.Duration, poll eventPollFunc) {
	defer o.wg.Done()

	reg, err := o.store.GetOrCreateSource(ctx, name, sourceType, baseURL, int(interval.Seconds()))
	if err != nil {
		slog.Error("failed to register source, loop will not start", "source", name, "error", err)
		return
	}

	run := func() {
		o.pollAndDispatchEvents(ctx, reg, poll)
	}
	run()

	ticker := time.NewTicker(interval)
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

func (o *Orchestrator) pollAndDispatchEvents(ctx context.Context, reg *models.SourceRegistry, poll eventPollFunc) {
	candidates, err := poll(ctx)
	o.recordPollOutcome(ctx, reg, err)
	if err != nil {
		return
	}

	for i, c := range candidates {
		candidates[i] = newEventID(reg.ID, c)
	}

	fresh, err := o.dedup.Events(ctx, reg.ID, candidates)
	if err != nil {
		slog.Error("dedup/persist failed", "source", reg.SourceName, "error", err)
		return
	}

	metricsEventsIngested(reg.SourceName, len(fresh))
	metricsDedupDropped("event", len(candidates)-len(fresh))

	for _, ev := range fresh {
		if isDisasterRelevant(ev) {
			o.pool.Submit(ev)
		}
	}
}

// isDisasterRelevant gates which events flow into the cascade:
// geophysical and humanitarian events always do, social events only
// when their classified severity is high or critical.
func isDisasterRelevant(ev models.IngestedEvent) bool {
	switch ev.EventType {
	case models.EventEarthquake, models.EventGDACSAlert:
		return true
	case models.EventSocialSOS:
		return ev.Severity == models.SeverityHigh || ev.Severity == models.SeverityCritical
	default:
		return false
	}
}

func (o *Orchestrator) runSatelliteLoop(ctx context.Context, interval time.Duration) {
	defer o.wg.Done()

	reg, err := o.store.GetOrCreateSource(ctx, models.SourceNASAFIRMS, "satellite", o.cfg.Sources.FIRMSBaseURL, int(interval.Seconds()))
	if err != nil {
		slog.Error("failed to register source, loop will not start", "source", models.SourceNASAFIRMS, "error", err)
		return
	}

	run := func() {
		candidates, err := o.firms.Poll(ctx)
		o.recordPollOutcome(ctx, reg, err)
		if err != nil {
			return
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
			slog.Error("dedup/persist failed", "source", reg.SourceName, "error", err)
			return
		}
		metricsDedupDropped("satellite", len(candidates)-len(fresh))
	}
	run()

	ticker := time.NewTicker(interval)
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

// runWeatherLoop never creates disasters; it only refreshes the
// weather_observations table for every tracked location.
func (o *Orchestrator) runWeatherLoop(ctx context.Context, interval time.Duration) {
	defer o.wg.Done()

	reg, err := o.store.GetOrCreateSource(ctx, models.SourceOpenWeatherMap, "weather", o.cfg.Sources.WeatherURL, int(interval.Seconds()))
	if err != nil {
		slog.Error("failed to register source, loop will not start", "source", models.SourceOpenWeatherMap, "error", err)
		return
	}

	run := func() {
		locations, err := o.store.TrackedLocations(ctx)
		if err != nil {
			slog.Error("failed to load tracked locations", "error", err)
			o.recordPollOutcome(ctx, reg, err)
			return
		}

		obs, err := o.weather.Poll(ctx, locations)
		o.recordPollOutcome(ctx, reg, err)
		if err != nil {
			return
		}

		for i := range obs {
			if err := o.store.InsertWeatherObservation(ctx, &obs[i]); err != nil {
				slog.Error("failed to persist weather observation", "error", err)
			}
		}
		metricsEventsIngested(reg.SourceName, len(obs))
	}
	run()

	ticker := time.NewTicker(interval)
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

func (o *Orchestrator) recordPollOutcome(ctx context.Context, reg *models.SourceRegistry, pollErr error) {
	status := models.SourceStatusSuccess
	errMsg := ""
	if pollErr != nil {
		status = models.SourceStatusError
		errMsg = truncate(pollErr.Error(), maxLastErrorLen)
		slog.Error("poll failed", "source", reg.SourceName, "error", pollErr)
	}
	now := time.Now().UTC()
	if err := o.store.UpdateSourceStatus(ctx, reg.ID, sql.NullTime{Time: now, Valid: true}, status, errMsg); err != nil {
		slog.Error("failed to record poll outcome", "source", reg.SourceName, "error", err)
	}
	metricsPoll(reg.SourceName, status)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (o *Orchestrator) pollUSGSOnce(ctx context.Context) ([]models.IngestedEvent, error) {
	return o.usgs.Poll(ctx)
}

func (o *Orchestrator) pollGDACSOnce(ctx context.Context) ([]models.IngestedEvent, error) {
	return o.gdacs.Poll(ctx)
}

func (o *Orchestrator) pollSocialOnce(ctx context.Context) ([]models.IngestedEvent, error) {
	return o.social.Poll(ctx)
}
