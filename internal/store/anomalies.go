package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertAnomalyAlert(ctx context.Context, a *models.AnomalyAlert) error {
	contextData, err := json.Marshal(a.ContextData)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO anomaly_alerts (
			id, anomaly_type, severity, metric_name, metric_value, expected_lower,
			expected_upper, anomaly_score, context_data, ai_explanation, status,
			detected_at, acknowledged_by, acknowledged_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, a.ID, a.AnomalyType, a.Severity, a.MetricName, a.MetricValue, a.ExpectedRange.Lower,
		a.ExpectedRange.Upper, a.AnomalyScore, string(contextData), a.AIExplanation, a.Status,
		a.DetectedAt, a.AcknowledgedBy, a.AcknowledgedAt)
	return err
}

func (s *Store) ListActiveAnomalyAlerts(ctx context.Context) ([]models.AnomalyAlert, error) {
	return s.listAnomalyAlerts(ctx, `WHERE status = ?`, models.AnomalyActive)
}

func (s *Store) ListAllAnomalyAlerts(ctx context.Context) ([]models.AnomalyAlert, error) {
	return s.listAnomalyAlerts(ctx, ``)
}

func (s *Store) listAnomalyAlerts(ctx context.Context, where string, args ...any) ([]models.AnomalyAlert, error) {
	query := `SELECT id, anomaly_type, severity, metric_name, metric_value, expected_lower,
		expected_upper, anomaly_score, context_data, ai_explanation, status, detected_at,
		acknowledged_by, acknowledged_at FROM anomaly_alerts ` + where + ` ORDER BY detected_at DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AnomalyAlert
	for rows.Next() {
		var a models.AnomalyAlert
		var contextData string
		var ackBy sql.NullString
		var ackAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.AnomalyType, &a.Severity, &a.MetricName, &a.MetricValue,
			&a.ExpectedRange.Lower, &a.ExpectedRange.Upper, &a.AnomalyScore, &contextData,
			&a.AIExplanation, &a.Status, &a.DetectedAt, &ackBy, &ackAt); err != nil {
			return nil, err
		}
		if contextData != "" {
			if err := json.Unmarshal([]byte(contextData), &a.ContextData); err != nil {
				return nil, err
			}
		}
		if ackBy.Valid {
			a.AcknowledgedBy = &ackBy.String
		}
		if ackAt.Valid {
			a.AcknowledgedAt = &ackAt.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AcknowledgeAnomalyAlert(ctx context.Context, id, by string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE anomaly_alerts SET status = ?, acknowledged_by = ?, acknowledged_at = ? WHERE id = ?
	`, models.AnomalyAcknowledged, by, now, id)
	return err
}

func (s *Store) ResolveAnomalyAlert(ctx context.Context, id string, status models.AnomalyStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE anomaly_alerts SET status = ? WHERE id = ?`, status, id)
	return err
}
