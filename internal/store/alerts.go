package store

import (
	"context"
	"database/sql"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertAlertNotification(ctx context.Context, n *models.AlertNotification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_notifications (
			id, event_id, disaster_id, prediction_id, recipient, recipient_role,
			subject, body, severity, channel, status, external_ref, error_message,
			created_at, sent_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, n.ID, n.EventID, n.DisasterID, n.PredictionID, n.Recipient, n.RecipientRole,
		n.Subject, n.Body, n.Severity, n.Channel, n.Status, n.ExternalRef, n.ErrorMessage,
		n.CreatedAt, n.SentAt)
	return err
}

func (s *Store) ListAlertNotifications(ctx context.Context, f Filter) ([]models.AlertNotification, error) {
	query := `SELECT id, event_id, disaster_id, prediction_id, recipient, recipient_role,
		subject, body, severity, channel, status, external_ref, error_message, created_at, sent_at
		FROM alert_notifications`
	where, args := f.whereClause()
	suffix, sargs := f.suffix("created_at")
	query += where + suffix
	args = append(args, sargs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AlertNotification
	for rows.Next() {
		var n models.AlertNotification
		var disasterID, predictionID, externalRef, errMsg sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.EventID, &disasterID, &predictionID, &n.Recipient, &n.RecipientRole,
			&n.Subject, &n.Body, &n.Severity, &n.Channel, &n.Status, &externalRef, &errMsg,
			&n.CreatedAt, &sentAt); err != nil {
			return nil, err
		}
		if disasterID.Valid {
			n.DisasterID = &disasterID.String
		}
		if predictionID.Valid {
			n.PredictionID = &predictionID.String
		}
		n.ExternalRef = externalRef.String
		n.ErrorMessage = errMsg.String
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
