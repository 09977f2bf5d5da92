package anomaly

import (
	"context"
	"testing"
	"time"

	"github.com/reliefgrid/triage-platform/internal/config"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/store"
)

type fakeStore struct {
	resources []models.Resource
	requests  []models.ResourceRequest
	disasters []models.Disaster
	inserted  []models.AnomalyAlert
}

func (f *fakeStore) ListResourcesSince(ctx context.Context, since time.Time, limit int) ([]models.Resource, error) {
	return f.resources, nil
}

func (f *fakeStore) ListResourceRequests(ctx context.Context, filter store.Filter) ([]models.ResourceRequest, error) {
	return f.requests, nil
}

func (f *fakeStore) ListDisasters(ctx context.Context, filter store.Filter) ([]models.Disaster, error) {
	return f.disasters, nil
}

func (f *fakeStore) InsertAnomalyAlert(ctx context.Context, a *models.AnomalyAlert) error {
	f.inserted = append(f.inserted, *a)
	return nil
}

func TestRunDetection_BelowMinSamplesSkipsFamily(t *testing.T) {
	fs := &fakeStore{
		requests:  nil,
		disasters: nil,
	}
	// Only 5 resource rows, all distinct hours -> below min_samples.
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		fs.resources = append(fs.resources, models.Resource{
			ID: "r", Type: models.ResourceWater, Quantity: 10,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	d := NewDetector(fs, config.AnomalyConfig{Contamination: 0.05, MinSamples: 20, LookbackHours: 48})
	alerts, err := d.RunDetection(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts below min sample threshold, got %d", len(alerts))
	}
}

func TestRunDetection_FlagsObviousRequestVolumeSpike(t *testing.T) {
	fs := &fakeStore{}
	base := time.Now().UTC().Add(-40 * time.Hour)

	// 40 quiet hours, then one enormous spike hour.
	for i := 0; i < 40; i++ {
		hour := base.Add(time.Duration(i) * time.Hour)
		fs.requests = append(fs.requests, models.ResourceRequest{
			ID: "req", Priority: "low", CreatedAt: hour,
		})
	}
	spikeHour := base.Add(41 * time.Hour)
	for i := 0; i < 200; i++ {
		fs.requests = append(fs.requests, models.ResourceRequest{
			ID: "req-spike", Priority: "critical", CreatedAt: spikeHour,
		})
	}

	d := NewDetector(fs, config.AnomalyConfig{Contamination: 0.05, MinSamples: 20, LookbackHours: 48})
	alerts, err := d.RunDetection(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, a := range alerts {
		if a.AnomalyType == models.AnomalyRequestVolume {
			found = true
			if a.MetricValue <= 10 {
				t.Errorf("expected the flagged metric value to reflect the spike, got %f", a.MetricValue)
			}
		}
	}
	if !found {
		t.Error("expected at least one request_volume anomaly to be flagged for the spike hour")
	}
	if len(fs.inserted) != len(alerts) {
		t.Errorf("expected every returned alert to have been persisted, got %d inserts for %d alerts", len(fs.inserted), len(alerts))
	}
}

func TestClassifySeverity_Bands(t *testing.T) {
	cases := []struct {
		score    float64
		expected models.Severity
	}{
		{-0.5, models.SeverityCritical},
		{-0.25, models.SeverityHigh},
		{-0.15, models.SeverityMedium},
		{0.1, models.SeverityLow},
	}
	for _, c := range cases {
		if got := classifySeverity(c.score); got != c.expected {
			t.Errorf("classifySeverity(%f) = %s, want %s", c.score, got, c.expected)
		}
	}
}

func TestPercentile_Interpolates(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	if got := percentile(xs, 50); got != 3 {
		t.Errorf("expected median 3, got %f", got)
	}
	if got := percentile(xs, 0); got != 1 {
		t.Errorf("expected min 1, got %f", got)
	}
	if got := percentile(xs, 100); got != 5 {
		t.Errorf("expected max 5, got %f", got)
	}
}
