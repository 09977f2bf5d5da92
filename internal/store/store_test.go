package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResolveLocation_ReusesNearbyAndMintsStub(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.ResolveLocation(ctx, 35.0, 139.0)
	if err != nil {
		t.Fatalf("ResolveLocation failed: %v", err)
	}
	if first.City != "Unknown" {
		t.Errorf("expected stub location with Unknown city, got %q", first.City)
	}

	second, err := s.ResolveLocation(ctx, 35.3, 139.2)
	if err != nil {
		t.Fatalf("ResolveLocation failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected nearby point to reuse location %s, got %s", first.ID, second.ID)
	}

	third, err := s.ResolveLocation(ctx, 10.0, 10.0)
	if err != nil {
		t.Fatalf("ResolveLocation failed: %v", err)
	}
	if third.ID == first.ID {
		t.Error("expected far point to mint a new location")
	}
}

func TestInsertAndListEvents_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	src, err := s.GetOrCreateSource(ctx, models.SourceUSGS, "api", "https://example.test", 300)
	if err != nil {
		t.Fatalf("GetOrCreateSource failed: %v", err)
	}

	events := []models.IngestedEvent{
		{ID: uuid.NewString(), SourceID: src.ID, ExternalID: "usgs-us1", EventType: models.EventEarthquake, Severity: models.SeverityHigh, IngestedAt: time.Now()},
		{ID: uuid.NewString(), SourceID: src.ID, ExternalID: "usgs-us2", EventType: models.EventEarthquake, Severity: models.SeverityMedium, IngestedAt: time.Now()},
	}
	if err := s.InsertEvents(ctx, events); err != nil {
		t.Fatalf("InsertEvents failed: %v", err)
	}

	existing, err := s.ExistingExternalIDs(ctx, src.ID, []string{"usgs-us1", "usgs-us2", "usgs-us3"}, 100)
	if err != nil {
		t.Fatalf("ExistingExternalIDs failed: %v", err)
	}
	if !existing["usgs-us1"] || !existing["usgs-us2"] || existing["usgs-us3"] {
		t.Errorf("unexpected existence map: %+v", existing)
	}

	all, err := s.ListEvents(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 events, got %d", len(all))
	}
}

func TestListDisasters_FilterByType(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	loc, err := s.ResolveLocation(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ResolveLocation failed: %v", err)
	}

	disasters := []*models.Disaster{
		{ID: uuid.NewString(), Type: models.DisasterEarthquake, Severity: models.SeverityHigh, Status: models.DisasterActive, LocationID: loc.ID, StartDate: time.Now(), CreatedAt: time.Now()},
		{ID: uuid.NewString(), Type: models.DisasterFlood, Severity: models.SeverityMedium, Status: models.DisasterActive, LocationID: loc.ID, StartDate: time.Now(), CreatedAt: time.Now()},
	}
	for _, d := range disasters {
		if err := s.InsertDisaster(ctx, d); err != nil {
			t.Fatalf("InsertDisaster failed: %v", err)
		}
	}

	results, err := s.ListDisasters(ctx, Filter{Eq: map[string]any{"type": models.DisasterEarthquake}})
	if err != nil {
		t.Fatalf("ListDisasters failed: %v", err)
	}
	if len(results) != 1 || results[0].Type != models.DisasterEarthquake {
		t.Errorf("expected 1 earthquake, got %+v", results)
	}
}
