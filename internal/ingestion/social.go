package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/reliefgrid/triage-platform/internal/ingestion/mock"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

type socialSearchResponse struct {
	Meta struct {
		NewestID string `json:"newest_id"`
	} `json:"meta"`
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
		Geo       *struct {
			Coordinates struct {
				Coordinates [2]float64 `json:"coordinates"`
			} `json:"coordinates"`
		} `json:"geo"`
	} `json:"data"`
}

// SocialAdapter polls a keyword-filtered social search endpoint for
// SOS-style posts, falling back to synthetic signals when no bearer
// token is configured or the upstream call fails. Pagination across
// poll cycles is tracked with an in-memory since-id cursor.
type SocialAdapter struct {
	Keywords       []string
	KeywordWeights map[string]float64
	Token          string
	breaker        *gobreaker.CircuitBreaker
	client         *http.Client
	mockGen        *mock.Generator

	mu     sync.Mutex
	sinceID string
}

func NewSocialAdapter(token string, keywords []string, keywordWeights map[string]float64) *SocialAdapter {
	return &SocialAdapter{
		Keywords:       keywords,
		KeywordWeights: keywordWeights,
		Token:          token,
		breaker:        newBreakerClient("social"),
		client:         httpClient(10 * time.Second),
		mockGen:        mock.NewGenerator(time.Now().UnixNano()),
	}
}

// weightedSeverityBoost sums the configured weight of every keyword
// that appears in text. A high-weight match (operator-tuned, e.g.
// "trapped:3.0") escalates a post past what the fixed word list in
// mock.EstimateSocialSeverity alone would assign.
func (a *SocialAdapter) weightedSeverityBoost(text string) float64 {
	lower := strings.ToLower(text)
	var total float64
	for kw, weight := range a.KeywordWeights {
		if strings.Contains(lower, strings.ToLower(kw)) {
			total += weight
		}
	}
	return total
}

func escalateSeverity(sev models.Severity) models.Severity {
	switch sev {
	case models.SeverityLow:
		return models.SeverityMedium
	case models.SeverityMedium:
		return models.SeverityHigh
	case models.SeverityHigh:
		return models.SeverityCritical
	default:
		return sev
	}
}

func (a *SocialAdapter) Name() models.SourceName { return models.SourceSocialMedia }

func (a *SocialAdapter) Poll(ctx context.Context) ([]models.IngestedEvent, error) {
	if a.Token == "" {
		return a.mockGen.SocialSignals(-1), nil
	}
	result, err := a.breaker.Execute(func() (any, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		return a.mockGen.SocialSignals(-1), nil
	}
	return result.([]models.IngestedEvent), nil
}

func (a *SocialAdapter) fetch(ctx context.Context) ([]models.IngestedEvent, error) {
	query := strings.Join(a.Keywords, " OR ")
	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", "25")
	q.Set("tweet.fields", "created_at,geo")

	a.mu.Lock()
	sinceID := a.sinceID
	a.mu.Unlock()
	if sinceID != "" {
		q.Set("since_id", sinceID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.twitter.com/2/tweets/search/recent?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("social: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("social: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("social: unexpected status %d", resp.StatusCode)
	}

	var data socialSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("social: decoding response: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.IngestedEvent, 0, len(data.Data))
	for _, post := range data.Data {
		severity := mock.EstimateSocialSeverity(post.Text)
		if a.weightedSeverityBoost(post.Text) >= 1.0 {
			severity = escalateSeverity(severity)
		}
		title := post.Text
		if len(title) > 80 {
			title = title[:80] + "..."
		}

		event := models.IngestedEvent{
			ExternalID:  "twitter-" + post.ID,
			EventType:   models.EventSocialSOS,
			Title:       "Social SOS: " + title,
			Description: post.Text,
			Severity:    severity,
			IngestedAt:  now,
			RawPayload: map[string]any{
				"tweet_id":   post.ID,
				"created_at": post.CreatedAt,
				"text":       post.Text,
			},
		}
		if post.Geo != nil {
			event.Latitude = post.Geo.Coordinates.Coordinates[1]
			event.Longitude = post.Geo.Coordinates.Coordinates[0]
		}
		out = append(out, event)
	}

	if data.Meta.NewestID != "" {
		a.mu.Lock()
		a.sinceID = data.Meta.NewestID
		a.mu.Unlock()
	}
	return out, nil
}
