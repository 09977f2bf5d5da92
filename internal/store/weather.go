package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertWeatherObservation(ctx context.Context, o *models.WeatherObservation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	raw, err := json.Marshal(o.RawPayload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weather_observations (
			id, location_id, temperature_c, humidity_pct, wind_speed_ms, wind_deg,
			pressure_hpa, precipitation_mm, visibility_m, weather_main, weather_desc,
			observed_at, source, raw_payload
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.LocationID, o.TemperatureC, o.HumidityPct, o.WindSpeedMS, o.WindDeg,
		o.PressureHPA, o.PrecipitationMM, o.VisibilityM, o.WeatherMain, o.WeatherDesc,
		o.ObservedAt, o.Source, string(raw))
	return err
}

// LatestWeatherForLocation returns the most recent observation for a
// location, or nil if none exists — the prediction client's feature
// source before falling back to defaults.
func (s *Store) LatestWeatherForLocation(ctx context.Context, locationID string) (*models.WeatherObservation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, temperature_c, humidity_pct, wind_speed_ms, wind_deg,
			pressure_hpa, precipitation_mm, visibility_m, weather_main, weather_desc,
			observed_at, source, raw_payload
		FROM weather_observations WHERE location_id = ? ORDER BY observed_at DESC LIMIT 1
	`, locationID)

	var o models.WeatherObservation
	var locID sql.NullString
	var raw string
	err := row.Scan(&o.ID, &locID, &o.TemperatureC, &o.HumidityPct, &o.WindSpeedMS, &o.WindDeg,
		&o.PressureHPA, &o.PrecipitationMM, &o.VisibilityM, &o.WeatherMain, &o.WeatherDesc,
		&o.ObservedAt, &o.Source, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if locID.Valid {
		o.LocationID = &locID.String
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &o.RawPayload); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

// TrackedLocations returns every location with non-null coordinates —
// the weather adapter's per-cycle fetch list.
func (s *Store) TrackedLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, city, state, country, latitude, longitude, created_at
		FROM locations WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.City, &loc.State, &loc.Country, &loc.Latitude, &loc.Longitude, &loc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
