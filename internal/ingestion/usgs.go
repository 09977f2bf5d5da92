package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reliefgrid/triage-platform/internal/ingestion/mock"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}

type usgsProperties struct {
	Mag     float64 `json:"mag"`
	MagType string  `json:"magType"`
	Place   string  `json:"place"`
	Time    int64   `json:"time"`
	Title   string  `json:"title"`
	Tsunami int     `json:"tsunami"`
	Felt    int     `json:"felt"`
	Alert   string  `json:"alert"`
	Status  string  `json:"status"`
	URL     string  `json:"url"`
	Type    string  `json:"type"`
}

type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"`
}

// USGSAdapter polls the USGS earthquake GeoJSON feed, filtering to
// magnitude >= MinMagnitude, and falls back to synthetic quakes when
// the upstream feed is unreachable or its breaker is open.
type USGSAdapter struct {
	URL          string
	MinMagnitude float64
	breaker      *gobreaker.CircuitBreaker
	client       *http.Client
	mockGen      *mock.Generator
}

func NewUSGSAdapter(url string, minMagnitude float64) *USGSAdapter {
	return &USGSAdapter{
		URL:          url,
		MinMagnitude: minMagnitude,
		breaker:      newBreakerClient("usgs"),
		client:       httpClient(15 * time.Second),
		mockGen:      mock.NewGenerator(time.Now().UnixNano()),
	}
}

func (a *USGSAdapter) Name() models.SourceName { return models.SourceUSGS }

func (a *USGSAdapter) Poll(ctx context.Context) ([]models.IngestedEvent, error) {
	result, err := a.breaker.Execute(func() (any, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		return a.mockGen.Earthquakes(-1), nil
	}
	return result.([]models.IngestedEvent), nil
}

func (a *USGSAdapter) fetch(ctx context.Context) ([]models.IngestedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("usgs: building request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usgs: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usgs: unexpected status %d", resp.StatusCode)
	}

	var data usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("usgs: decoding response: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.IngestedEvent, 0, len(data.Features))
	for _, f := range data.Features {
		if f.Properties.Mag < a.MinMagnitude {
			continue
		}
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}

		out = append(out, models.IngestedEvent{
			ExternalID:   "usgs-" + f.ID,
			EventType:    models.EventEarthquake,
			Title:        f.Properties.Title,
			Description:  f.Properties.Place,
			Severity:     magnitudeSeverity(f.Properties.Mag),
			Latitude:     f.Geometry.Coordinates[1],
			Longitude:    f.Geometry.Coordinates[0],
			LocationName: f.Properties.Place,
			IngestedAt:   now,
			RawPayload: map[string]any{
				"usgs_id":   f.ID,
				"magnitude": f.Properties.Mag,
				"mag_type":  f.Properties.MagType,
				"depth_km":  depthFromCoords(f.Geometry.Coordinates),
				"place":     f.Properties.Place,
				"time":      f.Properties.Time,
				"url":       f.Properties.URL,
				"tsunami":   f.Properties.Tsunami,
				"felt":      f.Properties.Felt,
				"alert":     f.Properties.Alert,
				"status":    f.Properties.Status,
				"type":      f.Properties.Type,
			},
		})
	}
	return out, nil
}

func depthFromCoords(coords []float64) float64 {
	if len(coords) < 3 {
		return 0
	}
	return coords[2]
}

func magnitudeSeverity(mag float64) models.Severity {
	switch {
	case mag >= 7.0:
		return models.SeverityCritical
	case mag >= 6.0:
		return models.SeverityHigh
	case mag >= 5.0:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
