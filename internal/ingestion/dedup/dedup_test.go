package dedup

import (
	"context"
	"testing"

	"github.com/reliefgrid/triage-platform/internal/models"
)

type fakeEventStore struct {
	existing map[string]bool
	inserted []models.IngestedEvent
}

func (f *fakeEventStore) ExistingExternalIDs(ctx context.Context, sourceID string, externalIDs []string, chunkSize int) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range externalIDs {
		if f.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeEventStore) InsertEvents(ctx context.Context, events []models.IngestedEvent) error {
	f.inserted = append(f.inserted, events...)
	return nil
}

func TestDeduplicator_Events_FiltersExisting(t *testing.T) {
	store := &fakeEventStore{existing: map[string]bool{"usgs-1": true}}
	d := New(store, nil)

	candidates := []models.IngestedEvent{
		{ExternalID: "usgs-1"},
		{ExternalID: "usgs-2"},
	}

	fresh, err := d.Events(context.Background(), "src-1", candidates)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(fresh) != 1 || fresh[0].ExternalID != "usgs-2" {
		t.Errorf("expected only usgs-2 to survive dedup, got %+v", fresh)
	}
	if len(store.inserted) != 1 {
		t.Errorf("expected 1 insert, got %d", len(store.inserted))
	}
}

func TestDeduplicator_Events_EmptyBatch(t *testing.T) {
	store := &fakeEventStore{existing: map[string]bool{}}
	d := New(store, nil)

	fresh, err := d.Events(context.Background(), "src-1", nil)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if fresh != nil {
		t.Errorf("expected nil result for empty batch, got %+v", fresh)
	}
}

type fakeSatelliteStore struct {
	existing map[string]bool
	inserted []models.SatelliteObservation
}

func (f *fakeSatelliteStore) ExistingSatelliteExternalIDs(ctx context.Context, externalIDs []string, chunkSize int) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range externalIDs {
		if f.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeSatelliteStore) InsertSatelliteObservations(ctx context.Context, obs []models.SatelliteObservation) error {
	f.inserted = append(f.inserted, obs...)
	return nil
}

func TestDeduplicator_SatelliteObservations_FiltersExisting(t *testing.T) {
	store := &fakeSatelliteStore{existing: map[string]bool{"firms-1-1-2026-01-01-0000": true}}
	d := New(nil, store)

	candidates := []models.SatelliteObservation{
		{ExternalID: "firms-1-1-2026-01-01-0000"},
		{ExternalID: "firms-2-2-2026-01-01-0000"},
	}

	fresh, err := d.SatelliteObservations(context.Background(), candidates)
	if err != nil {
		t.Fatalf("SatelliteObservations failed: %v", err)
	}
	if len(fresh) != 1 || fresh[0].ExternalID != "firms-2-2-2026-01-01-0000" {
		t.Errorf("unexpected fresh set: %+v", fresh)
	}
}
