package orchestrator

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/prediction"
)

// predictionOrder is the fixed sequence every cascade invokes the
// prediction client in; a failure on one type never skips the rest.
var predictionOrder = []models.PredictionType{
	models.PredictionSeverity,
	models.PredictionSpread,
	models.PredictionImpact,
}

// runCascade turns one disaster-relevant ingested event into a
// canonical Disaster, a run of Predictions, and (when warranted) an
// alert notification and a stream broadcast. Each step is best-effort:
// a failure is logged and the remaining steps still run, except that
// a failed Disaster insert aborts the cascade outright since nothing
// downstream has anywhere to attach.
func (o *Orchestrator) runCascade(ctx context.Context, ev models.IngestedEvent) {
	loc, err := o.store.ResolveLocation(ctx, ev.Latitude, ev.Longitude)
	if err != nil {
		slog.Error("cascade: resolve location failed", "event", ev.ExternalID, "error", err)
		metricsCascade("resolve_location", "error")
		return
	}
	metricsCascade("resolve_location", "success")

	disaster := &models.Disaster{
		ID:          uuid.NewString(),
		Type:        resolveDisasterType(ev),
		Severity:    ev.Severity,
		Status:      models.DisasterActive,
		Title:       nonEmpty(ev.Title, ev.LocationName),
		Description: ev.Description,
		LocationID:  loc.ID,
		StartDate:   time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.store.InsertDisaster(ctx, disaster); err != nil {
		slog.Error("cascade: disaster create failed, aborting", "event", ev.ExternalID, "error", err)
		metricsCascade("create_disaster", "error")
		return
	}
	metricsCascade("create_disaster", "success")

	if err := o.store.MarkEventProcessed(ctx, ev.ID, disaster.ID, nil, sql.NullTime{Time: time.Now().UTC(), Valid: true}); err != nil {
		slog.Error("cascade: marking event processed failed", "event", ev.ExternalID, "error", err)
	}

	weatherObs, err := o.store.LatestWeatherForLocation(ctx, loc.ID)
	if err != nil {
		slog.Warn("cascade: weather lookup failed, using defaults", "location", loc.ID, "error", err)
	}
	wf := models.FeaturesOrDefault(weatherObs)

	in := prediction.Inputs{
		Temperature:   wf.Temperature,
		Humidity:      wf.Humidity,
		WindSpeed:     wf.WindSpeed,
		Pressure:      wf.Pressure,
		Precipitation: wf.Precipitation,
	}
	if mag, ok := ev.RawPayload["magnitude"].(float64); ok {
		in.Magnitude = mag
	}

	var predictionIDs []string
	for _, predType := range predictionOrder {
		pred, err := o.predictor.Predict(ctx, disaster, loc.ID, predType, in)
		if err != nil {
			slog.Error("cascade: prediction failed", "type", predType, "event", ev.ExternalID, "error", err)
			metricsCascade("predict_"+string(predType), "error")
			continue
		}
		if err := o.store.InsertPrediction(ctx, pred); err != nil {
			slog.Error("cascade: persisting prediction failed", "type", predType, "event", ev.ExternalID, "error", err)
			metricsCascade("predict_"+string(predType), "error")
			continue
		}
		predictionIDs = append(predictionIDs, pred.ID)
		metricsCascade("predict_"+string(predType), "success")
	}

	if len(predictionIDs) > 0 {
		if err := o.store.MarkEventProcessed(ctx, ev.ID, disaster.ID, predictionIDs, sql.NullTime{Time: time.Now().UTC(), Valid: true}); err != nil {
			slog.Error("cascade: back-filling prediction ids failed", "event", ev.ExternalID, "error", err)
		}
	}

	if o.broadcaster != nil {
		o.broadcaster.Broadcast(disaster)
		metricsStreamSubscribers(o.broadcaster.SubscriberCount())
	}

	var firstPredictionID *string
	if len(predictionIDs) > 0 {
		firstPredictionID = &predictionIDs[0]
	}
	if o.alertDispatcher != nil {
		notifications, err := o.alertDispatcher.EvaluateAndNotify(ctx, ev, &disaster.ID, firstPredictionID)
		if err != nil {
			slog.Error("cascade: alert dispatch failed", "event", ev.ExternalID, "error", err)
		}
		for _, n := range notifications {
			metricsAlertDispatched(string(n.Status))
		}
	}
}

// resolveDisasterType maps a source-specific event into the canonical
// disaster vocabulary: geophysical events map directly, GDACS alerts
// carry their mapped type in raw_payload from the adapter's own fixed
// table, and everything else (currently only social reports) falls
// back to "other".
func resolveDisasterType(ev models.IngestedEvent) models.DisasterType {
	switch ev.EventType {
	case models.EventEarthquake:
		return models.DisasterEarthquake
	case models.EventGDACSAlert:
		if mapped, ok := ev.RawPayload["disaster_type_mapped"].(string); ok && models.ValidDisasterType(mapped) {
			return models.DisasterType(mapped)
		}
		return models.DisasterOther
	default:
		return models.DisasterOther
	}
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
