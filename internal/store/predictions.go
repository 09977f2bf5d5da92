package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertPrediction(ctx context.Context, p *models.Prediction) error {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (
			id, disaster_id, location_id, prediction_type, features, confidence_score,
			predicted_severity, predicted_area_km2, ci_lower_km2, ci_upper_km2,
			predicted_casualties, predicted_damage_usd, model_version, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.DisasterID, p.LocationID, p.PredictionType, string(features), p.ConfidenceScore,
		p.PredictedSeverity, p.PredictedAreaKM2, p.CILowerKM2, p.CIUpperKM2,
		p.PredictedCasualties, p.PredictedDamageUSD, p.ModelVersion, p.CreatedAt)
	return err
}

func (s *Store) ListPredictionsForDisaster(ctx context.Context, disasterID string) ([]models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, disaster_id, location_id, prediction_type, features, confidence_score,
			predicted_severity, predicted_area_km2, ci_lower_km2, ci_upper_km2,
			predicted_casualties, predicted_damage_usd, model_version, created_at
		FROM predictions WHERE disaster_id = ? ORDER BY created_at
	`, disasterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListPredictionsSince returns every prediction created at or after
// since across all disasters, newest first, for the situation
// report's 24-hour prediction summary.
func (s *Store) ListPredictionsSince(ctx context.Context, since time.Time, limit int) ([]models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, disaster_id, location_id, prediction_type, features, confidence_score,
			predicted_severity, predicted_area_km2, ci_lower_km2, ci_upper_km2,
			predicted_casualties, predicted_damage_usd, model_version, created_at
		FROM predictions WHERE created_at >= ? ORDER BY created_at DESC LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPrediction(row rowScanner) (*models.Prediction, error) {
	var p models.Prediction
	var features string
	var predictedArea, ciLower, ciUpper, damage sql.NullFloat64
	var casualties sql.NullInt64

	err := row.Scan(&p.ID, &p.DisasterID, &p.LocationID, &p.PredictionType, &features, &p.ConfidenceScore,
		&p.PredictedSeverity, &predictedArea, &ciLower, &ciUpper, &casualties, &damage, &p.ModelVersion, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if features != "" {
		if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
			return nil, err
		}
	}
	if predictedArea.Valid {
		p.PredictedAreaKM2 = &predictedArea.Float64
	}
	if ciLower.Valid {
		p.CILowerKM2 = &ciLower.Float64
	}
	if ciUpper.Valid {
		p.CIUpperKM2 = &ciUpper.Float64
	}
	if casualties.Valid {
		v := int(casualties.Int64)
		p.PredictedCasualties = &v
	}
	if damage.Valid {
		p.PredictedDamageUSD = &damage.Float64
	}
	return &p, nil
}
