package models

import "time"

// WeatherObservation is an append-only atmospheric snapshot for one
// location.
type WeatherObservation struct {
	ID              string
	LocationID      *string
	TemperatureC    float64
	HumidityPct     float64
	WindSpeedMS     float64
	WindDeg         float64
	PressureHPA     float64
	PrecipitationMM float64
	VisibilityM     float64
	WeatherMain     string
	WeatherDesc     string
	ObservedAt      time.Time
	Source          string
	RawPayload      map[string]any
}

// Features defaults used by the prediction client when no recent
// observation exists for a location.
const (
	DefaultTemperatureC = 25.0
	DefaultHumidityPct  = 50.0
	DefaultWindSpeedMS  = 10.0
	DefaultPressureHPA  = 1013.0
)

// WeatherFeatures is the reduced feature set other components read off
// a WeatherObservation (or the defaults above).
type WeatherFeatures struct {
	Temperature   float64
	Humidity      float64
	WindSpeed     float64
	Pressure      float64
	Precipitation float64
}

// FeaturesOrDefault extracts WeatherFeatures from obs, or returns the
// documented defaults when obs is nil.
func FeaturesOrDefault(obs *WeatherObservation) WeatherFeatures {
	if obs == nil {
		return WeatherFeatures{
			Temperature: DefaultTemperatureC,
			Humidity:    DefaultHumidityPct,
			WindSpeed:   DefaultWindSpeedMS,
			Pressure:    DefaultPressureHPA,
		}
	}
	return WeatherFeatures{
		Temperature:   obs.TemperatureC,
		Humidity:      obs.HumidityPct,
		WindSpeed:     obs.WindSpeedMS,
		Pressure:      obs.PressureHPA,
		Precipitation: obs.PrecipitationMM,
	}
}
