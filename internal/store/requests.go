package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertResourceRequest(ctx context.Context, r *models.ResourceRequest) error {
	items, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}
	classification, err := json.Marshal(r.NLPClassification)
	if err != nil {
		return err
	}
	signals, err := json.Marshal(r.UrgencySignals)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resource_requests (
			id, description, items, resource_type, quantity, priority, status,
			nlp_classification, urgency_signals, ai_confidence, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`, r.ID, r.Description, string(items), r.ResourceType, r.Quantity, r.Priority, r.Status,
		string(classification), string(signals), r.AIConfidence, r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *Store) GetResourceRequest(ctx context.Context, id string) (*models.ResourceRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, items, resource_type, quantity, priority, status,
			nlp_classification, urgency_signals, ai_confidence, created_at, updated_at
		FROM resource_requests WHERE id = ?
	`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Store) UpdateResourceRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE resource_requests SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) ListResourceRequests(ctx context.Context, f Filter) ([]models.ResourceRequest, error) {
	query := `SELECT id, description, items, resource_type, quantity, priority, status,
		nlp_classification, urgency_signals, ai_confidence, created_at, updated_at FROM resource_requests`
	where, args := f.whereClause()
	suffix, sargs := f.suffix("created_at")
	query += where + suffix
	args = append(args, sargs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ResourceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest(row rowScanner) (*models.ResourceRequest, error) {
	var r models.ResourceRequest
	var items, classification, signals string

	err := row.Scan(&r.ID, &r.Description, &items, &r.ResourceType, &r.Quantity, &r.Priority, &r.Status,
		&classification, &signals, &r.AIConfidence, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if items != "" {
		if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
			return nil, err
		}
	}
	if classification != "" {
		if err := json.Unmarshal([]byte(classification), &r.NLPClassification); err != nil {
			return nil, err
		}
	}
	if signals != "" {
		if err := json.Unmarshal([]byte(signals), &r.UrgencySignals); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
