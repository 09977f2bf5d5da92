package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/ingestion/mock"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

// WeatherAdapter is the observation-producing analogue of EventAdapter.
type WeatherAdapter interface {
	Name() models.SourceName
	Poll(ctx context.Context, locations []models.Location) ([]models.WeatherObservation, error)
}

type owmResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Visibility float64 `json:"visibility"`
}

// OpenWeatherMapAdapter polls OpenWeatherMap's current-conditions API
// for each tracked location, falling back to synthetic observations
// when the API key is missing or the upstream call fails.
type OpenWeatherMapAdapter struct {
	URL     string
	APIKey  string
	breaker *gobreaker.CircuitBreaker
	client  *http.Client
	mockGen *mock.Generator
}

func NewOpenWeatherMapAdapter(baseURL, apiKey string) *OpenWeatherMapAdapter {
	return &OpenWeatherMapAdapter{
		URL:     baseURL,
		APIKey:  apiKey,
		breaker: newBreakerClient("weather"),
		client:  httpClient(10 * time.Second),
		mockGen: mock.NewGenerator(time.Now().UnixNano()),
	}
}

func (a *OpenWeatherMapAdapter) Name() models.SourceName { return models.SourceOpenWeatherMap }

func (a *OpenWeatherMapAdapter) Poll(ctx context.Context, locations []models.Location) ([]models.WeatherObservation, error) {
	if a.APIKey == "" {
		return a.mockGen.Weather(locations), nil
	}

	now := time.Now().UTC()
	out := make([]models.WeatherObservation, 0, len(locations))
	for _, loc := range locations {
		result, err := a.breaker.Execute(func() (any, error) {
			return a.fetchOne(ctx, loc)
		})
		if err != nil {
			mocked := a.mockGen.Weather([]models.Location{loc})
			out = append(out, mocked...)
			continue
		}
		obs := result.(models.WeatherObservation)
		obs.ObservedAt = now
		out = append(out, obs)
	}
	return out, nil
}

func (a *OpenWeatherMapAdapter) fetchOne(ctx context.Context, loc models.Location) (models.WeatherObservation, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", loc.Latitude))
	q.Set("lon", fmt.Sprintf("%f", loc.Longitude))
	q.Set("appid", a.APIKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL+"?"+q.Encode(), nil)
	if err != nil {
		return models.WeatherObservation{}, fmt.Errorf("weather: building request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.WeatherObservation{}, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.WeatherObservation{}, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.WeatherObservation{}, fmt.Errorf("weather: decoding response: %w", err)
	}

	var main, desc string
	if len(data.Weather) > 0 {
		main = data.Weather[0].Main
		desc = data.Weather[0].Description
	}

	var locID *string
	if loc.ID != "" {
		id := loc.ID
		locID = &id
	}

	return models.WeatherObservation{
		ID:              uuid.NewString(),
		LocationID:      locID,
		TemperatureC:    data.Main.Temp,
		HumidityPct:     data.Main.Humidity,
		WindSpeedMS:     data.Wind.Speed,
		WindDeg:         data.Wind.Deg,
		PressureHPA:     data.Main.Pressure,
		PrecipitationMM: data.Rain.OneHour,
		VisibilityM:     data.Visibility,
		WeatherMain:     main,
		WeatherDesc:     desc,
		Source:          "openweathermap",
		RawPayload: map[string]any{
			"location_name": loc.Name,
			"lat":           data.Coord.Lat,
			"lon":           data.Coord.Lon,
		},
	}, nil
}
