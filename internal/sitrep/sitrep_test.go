package sitrep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/store"
)

type fakeStore struct {
	disasters []models.Disaster
	resources []models.Resource
	requests  []models.ResourceRequest
	inserted  *models.SituationReport
}

func (f *fakeStore) ListDisasters(ctx context.Context, filter store.Filter) ([]models.Disaster, error) {
	return f.disasters, nil
}
func (f *fakeStore) ListAllResources(ctx context.Context) ([]models.Resource, error) {
	return f.resources, nil
}
func (f *fakeStore) ListResourceRequests(ctx context.Context, filter store.Filter) ([]models.ResourceRequest, error) {
	return f.requests, nil
}
func (f *fakeStore) ListPredictionsSince(ctx context.Context, since time.Time, limit int) ([]models.Prediction, error) {
	return nil, nil
}
func (f *fakeStore) ListEvents(ctx context.Context, filter store.Filter) ([]models.IngestedEvent, error) {
	return nil, nil
}
func (f *fakeStore) ListActiveAnomalyAlerts(ctx context.Context) ([]models.AnomalyAlert, error) {
	return nil, nil
}
func (f *fakeStore) InsertSituationReport(ctx context.Context, r *models.SituationReport) error {
	f.inserted = r
	return nil
}

func TestGenerate_NoActiveDisastersIsStandby(t *testing.T) {
	fs := &fakeStore{}
	g := NewGenerator(fs)

	report, err := g.Generate(context.Background(), "daily", "system")
	assert.NoError(t, err)
	assert.Contains(t, report.MarkdownBody, "standby mode")
	assert.Equal(t, models.SitrepGenerated, report.Status)
	assert.NotNil(t, fs.inserted)
}

func TestGenerate_CriticalDisasterSurfacesRecommendation(t *testing.T) {
	fs := &fakeStore{
		disasters: []models.Disaster{
			{ID: "d1", Type: models.DisasterEarthquake, Severity: models.SeverityCritical, Status: models.DisasterActive, Title: "Big Quake"},
		},
		requests: []models.ResourceRequest{
			{ID: "r1", Priority: "critical", Status: models.RequestPending},
		},
	}
	g := NewGenerator(fs)

	report, err := g.Generate(context.Background(), "daily", "system")
	assert.NoError(t, err)
	assert.Contains(t, report.MarkdownBody, "Big Quake")
	assert.Contains(t, report.MarkdownBody, "Prioritize critical-severity disasters")
	assert.Contains(t, report.MarkdownBody, "Address critical victim requests")
	assert.Equal(t, 1, report.KeyMetrics["active_disasters"])
}

func TestGenerate_HighUtilizationWarns(t *testing.T) {
	resources := make([]models.Resource, 0, 10)
	for i := 0; i < 9; i++ {
		resources = append(resources, models.Resource{ID: "alloc", Type: models.ResourceWater, Quantity: 10, Status: models.ResourceAllocated})
	}
	resources = append(resources, models.Resource{ID: "avail", Type: models.ResourceWater, Quantity: 5, Status: models.ResourceAvailable})
	fs := &fakeStore{resources: resources}
	g := NewGenerator(fs)

	report, err := g.Generate(context.Background(), "daily", "system")
	assert.NoError(t, err)
	assert.Contains(t, report.MarkdownBody, "Resource utilization above 80%")
}
