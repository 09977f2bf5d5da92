package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/ingestion/mock"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

// SatelliteAdapter is the fire-hotspot analogue of EventAdapter: it
// produces SatelliteObservation rows instead of IngestedEvent rows.
type SatelliteAdapter interface {
	Name() models.SourceName
	Poll(ctx context.Context) ([]models.SatelliteObservation, error)
}

// FIRMSAdapter polls the NASA FIRMS active-fire CSV API and falls back
// to synthetic hotspots when the upstream API key is missing or the
// request fails.
type FIRMSAdapter struct {
	BaseURL string
	APIKey  string
	breaker *gobreaker.CircuitBreaker
	client  *http.Client
	mockGen *mock.Generator
}

func NewFIRMSAdapter(baseURL, apiKey string) *FIRMSAdapter {
	return &FIRMSAdapter{
		BaseURL: baseURL,
		APIKey:  apiKey,
		breaker: newBreakerClient("firms"),
		client:  httpClient(20 * time.Second),
		mockGen: mock.NewGenerator(time.Now().UnixNano()),
	}
}

func (a *FIRMSAdapter) Name() models.SourceName { return models.SourceNASAFIRMS }

func (a *FIRMSAdapter) Poll(ctx context.Context) ([]models.SatelliteObservation, error) {
	if a.APIKey == "" {
		return a.mockGen.FireHotspots(-1), nil
	}
	result, err := a.breaker.Execute(func() (any, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		return a.mockGen.FireHotspots(-1), nil
	}
	return result.([]models.SatelliteObservation), nil
}

// fetch requests the global 24h VIIRS_SNPP_NRT product, the same
// product mock.FireHotspots is shaped after.
func (a *FIRMSAdapter) fetch(ctx context.Context) ([]models.SatelliteObservation, error) {
	url := fmt.Sprintf("%s/%s/VIIRS_SNPP_NRT/world/1", a.BaseURL, a.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("firms: building request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firms: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firms: unexpected status %d", resp.StatusCode)
	}

	return parseFIRMSCSV(resp.Body)
}

func parseFIRMSCSV(body io.Reader) ([]models.SatelliteObservation, error) {
	r := csv.NewReader(body)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("firms: reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	now := time.Now().UTC()
	var out []models.SatelliteObservation
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firms: reading row: %w", err)
		}

		lat := parseFloatCol(record, col, "latitude")
		lon := parseFloatCol(record, col, "longitude")
		latRaw := stringCol(record, col, "latitude")
		lonRaw := stringCol(record, col, "longitude")
		acqDate := stringCol(record, col, "acq_date")
		acqTime := stringCol(record, col, "acq_time")
		acqDatetime, err := time.Parse("2006-01-02 1504", acqDate+" "+padTime(acqTime))
		if err != nil {
			acqDatetime = now
		}

		out = append(out, models.SatelliteObservation{
			ID:          uuid.NewString(),
			ExternalID:  fmt.Sprintf("firms-%s-%s-%s-%s", latRaw, lonRaw, acqDate, acqTime),
			Latitude:    lat,
			Longitude:   lon,
			Brightness:  parseFloatCol(record, col, "bright_ti4"),
			FRP:         parseFloatCol(record, col, "frp"),
			Confidence:  mapFIRMSConfidence(stringCol(record, col, "confidence")),
			Satellite:   stringCol(record, col, "satellite"),
			Instrument:  stringCol(record, col, "instrument"),
			AcqDatetime: acqDatetime,
			Daynight:    stringCol(record, col, "daynight"),
			RawPayload:  recordToMap(header, record),
			CreatedAt:   now,
		})
	}
	return out, nil
}

func mapFIRMSConfidence(raw string) models.FireConfidence {
	switch strings.ToLower(raw) {
	case "h", "high":
		return models.FireConfidenceHigh
	case "l", "low":
		return models.FireConfidenceLow
	default:
		return models.FireConfidenceNominal
	}
}

func padTime(t string) string {
	for len(t) < 4 {
		t = "0" + t
	}
	return t
}

func parseFloatCol(record []string, col map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(stringCol(record, col, name), 64)
	if err != nil {
		return 0
	}
	return v
}

func stringCol(record []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func recordToMap(header, record []string) map[string]any {
	out := make(map[string]any, len(header))
	for i, h := range header {
		if i < len(record) {
			out[h] = record[i]
		}
	}
	return out
}
