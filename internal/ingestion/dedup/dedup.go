// Package dedup is the sole write path for IngestedEvent and
// SatelliteObservation rows: every candidate batch is filtered against
// existing external_ids before insertion.
package dedup

import (
	"context"

	"github.com/reliefgrid/triage-platform/internal/models"
)

const (
	eventChunkSize     = 100
	satelliteBatchSize = 500
)

// EventStore is the subset of store.Store the deduplicator needs for
// IngestedEvent candidates.
type EventStore interface {
	ExistingExternalIDs(ctx context.Context, sourceID string, externalIDs []string, chunkSize int) (map[string]bool, error)
	InsertEvents(ctx context.Context, events []models.IngestedEvent) error
}

// SatelliteStore is the subset of store.Store the deduplicator needs
// for SatelliteObservation candidates.
type SatelliteStore interface {
	ExistingSatelliteExternalIDs(ctx context.Context, externalIDs []string, chunkSize int) (map[string]bool, error)
	InsertSatelliteObservations(ctx context.Context, obs []models.SatelliteObservation) error
}

// Deduplicator filters candidate batches against the store's existing
// external_ids and bulk-inserts whatever survives.
type Deduplicator struct {
	events     EventStore
	satellites SatelliteStore
}

func New(events EventStore, satellites SatelliteStore) *Deduplicator {
	return &Deduplicator{events: events, satellites: satellites}
}

// Events filters candidates down to those not already present for
// sourceID and inserts the remainder, returning only the rows that
// were actually persisted.
func (d *Deduplicator) Events(ctx context.Context, sourceID string, candidates []models.IngestedEvent) ([]models.IngestedEvent, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ExternalID
	}

	existing, err := d.events.ExistingExternalIDs(ctx, sourceID, ids, eventChunkSize)
	if err != nil {
		return nil, err
	}

	fresh := make([]models.IngestedEvent, 0, len(candidates))
	for _, c := range candidates {
		if !existing[c.ExternalID] {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	if err := d.events.InsertEvents(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// SatelliteObservations filters and inserts fire-hotspot candidates,
// chunked at the larger 500-row batch size FIRMS polls produce.
func (d *Deduplicator) SatelliteObservations(ctx context.Context, candidates []models.SatelliteObservation) ([]models.SatelliteObservation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ExternalID
	}

	existing, err := d.satellites.ExistingSatelliteExternalIDs(ctx, ids, satelliteBatchSize)
	if err != nil {
		return nil, err
	}

	fresh := make([]models.SatelliteObservation, 0, len(candidates))
	for _, c := range candidates {
		if !existing[c.ExternalID] {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	if err := d.satellites.InsertSatelliteObservations(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}
