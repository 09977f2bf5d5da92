package ingestion

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-xmlfmt/xmlfmt"
	"github.com/reliefgrid/triage-platform/internal/ingestion/mock"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

// gdacsXMLLogLimit caps how much of the pretty-printed feed body gets
// attached to the debug log line, since a full GDACS pull can run to
// hundreds of KB.
const gdacsXMLLogLimit = 4000

type gdacsRSS struct {
	Channel gdacsChannel `xml:"channel"`
}
type gdacsChannel struct {
	Items []gdacsItem `xml:"item"`
}
type gdacsItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Point       string `xml:"point"`
	EventType   string `xml:"eventtype"`
	AlertLevel  string `xml:"alertlevel"`
	EventID     string `xml:"eventid"`
	Severity    string `xml:"severity"`
}

// GDACSAdapter polls the Global Disaster Alert and Coordination System
// RSS feed and falls back to synthetic humanitarian alerts when the
// feed is unreachable.
type GDACSAdapter struct {
	URL     string
	breaker *gobreaker.CircuitBreaker
	client  *http.Client
	mockGen *mock.Generator
}

func NewGDACSAdapter(url string) *GDACSAdapter {
	return &GDACSAdapter{
		URL:     url,
		breaker: newBreakerClient("gdacs"),
		client:  httpClient(15 * time.Second),
		mockGen: mock.NewGenerator(time.Now().UnixNano()),
	}
}

func (a *GDACSAdapter) Name() models.SourceName { return models.SourceGDACS }

func (a *GDACSAdapter) Poll(ctx context.Context) ([]models.IngestedEvent, error) {
	result, err := a.breaker.Execute(func() (any, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		return a.mockGen.GDACSEvents(-1), nil
	}
	return result.([]models.IngestedEvent), nil
}

func (a *GDACSAdapter) fetch(ctx context.Context) ([]models.IngestedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("gdacs: building request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdacs: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdacs: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gdacs: reading response: %w", err)
	}

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		pretty := xmlfmt.FormatXML(string(body), "", "  ")
		if len(pretty) > gdacsXMLLogLimit {
			pretty = pretty[:gdacsXMLLogLimit]
		}
		slog.Debug("gdacs feed fetched", "xml", pretty)
	}

	var data gdacsRSS
	if err := xml.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("gdacs: decoding response: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.IngestedEvent, 0, len(data.Channel.Items))
	for _, item := range data.Channel.Items {
		if item.EventID == "" {
			continue
		}

		var lat, lon float64
		if parts := strings.Fields(item.Point); len(parts) >= 2 {
			lat, _ = strconv.ParseFloat(parts[0], 64)
			lon, _ = strconv.ParseFloat(parts[1], 64)
		}

		pubDate, err := time.Parse(time.RFC1123, item.PubDate)
		if err != nil {
			slog.Warn("gdacs timestamp parse failed", "id", item.EventID, "error", err.Error())
			pubDate = now
		}

		eventType := strings.ToUpper(item.EventType)
		out = append(out, models.IngestedEvent{
			ExternalID:   fmt.Sprintf("gdacs-%s-%s", eventType, item.EventID),
			EventType:    models.EventGDACSAlert,
			Title:        item.Title,
			Description:  item.Description,
			Severity:     gdacsAlertSeverity(item.AlertLevel),
			Latitude:     lat,
			Longitude:    lon,
			LocationName: item.Title,
			IngestedAt:   now,
			RawPayload: map[string]any{
				"link":                 item.Link,
				"pub_date":             item.PubDate,
				"gdacs_event_type":     eventType,
				"gdacs_alert_level":    item.AlertLevel,
				"gdacs_event_id":       item.EventID,
				"disaster_type_mapped": string(mapGDACSEventType(eventType)),
				"severity_raw":         item.Severity,
				"published_at":         pubDate,
			},
		})
	}
	return out, nil
}

func gdacsAlertSeverity(alertLevel string) models.Severity {
	switch strings.ToLower(alertLevel) {
	case "red":
		return models.SeverityCritical
	case "orange":
		return models.SeverityHigh
	case "green":
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func mapGDACSEventType(eventType string) models.DisasterType {
	switch strings.ToUpper(eventType) {
	case "EQ":
		return models.DisasterEarthquake
	case "TC":
		return models.DisasterHurricane
	case "FL":
		return models.DisasterFlood
	case "VO":
		return models.DisasterVolcano
	case "TS":
		return models.DisasterTsunami
	case "WF":
		return models.DisasterWildfire
	case "DR":
		return models.DisasterDrought
	default:
		return models.DisasterOther
	}
}
