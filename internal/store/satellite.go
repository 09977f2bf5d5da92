package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) ExistingSatelliteExternalIDs(ctx context.Context, externalIDs []string, chunkSize int) (map[string]bool, error) {
	existing := make(map[string]bool, len(externalIDs))
	for _, batch := range chunk(externalIDs, chunkSize) {
		placeholders := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, id := range batch {
			placeholders[i] = "?"
			args[i] = id
		}
		query := fmt.Sprintf("SELECT external_id FROM satellite_observations WHERE external_id IN (%s)", joinPlaceholders(placeholders))
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			existing[id] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return existing, nil
}

func (s *Store) InsertSatelliteObservations(ctx context.Context, obs []models.SatelliteObservation) error {
	if len(obs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO satellite_observations (
			id, external_id, latitude, longitude, brightness, frp, confidence,
			satellite, instrument, acq_datetime, daynight, raw_payload, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range obs {
		raw, err := json.Marshal(o.RawPayload)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, o.ID, o.ExternalID, o.Latitude, o.Longitude, o.Brightness,
			o.FRP, o.Confidence, o.Satellite, o.Instrument, o.AcqDatetime, o.Daynight, string(raw), o.CreatedAt); err != nil {
			return fmt.Errorf("insert satellite observation %s: %w", o.ExternalID, err)
		}
	}
	return tx.Commit()
}

// HotspotsNear returns recent satellite observations within ±radiusDeg
// of (lat, lon), used to build spread-prediction features.
func (s *Store) HotspotsNear(ctx context.Context, lat, lon, radiusDeg float64, limit int) ([]models.SatelliteObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, external_id, latitude, longitude, brightness, frp, confidence,
			satellite, instrument, acq_datetime, daynight, raw_payload, created_at
		FROM satellite_observations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		ORDER BY acq_datetime DESC
		LIMIT ?
	`, lat-radiusDeg, lat+radiusDeg, lon-radiusDeg, lon+radiusDeg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SatelliteObservation
	for rows.Next() {
		var o models.SatelliteObservation
		var raw string
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.Latitude, &o.Longitude, &o.Brightness, &o.FRP,
			&o.Confidence, &o.Satellite, &o.Instrument, &o.AcqDatetime, &o.Daynight, &raw, &o.CreatedAt); err != nil {
			return nil, err
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &o.RawPayload); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
