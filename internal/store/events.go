package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/reliefgrid/triage-platform/internal/models"
)

// ExistingExternalIDs reports which of the given external IDs already
// have a row for sourceID, checked in chunks so a single poll never
// sends an unbounded IN clause.
func (s *Store) ExistingExternalIDs(ctx context.Context, sourceID string, externalIDs []string, chunkSize int) (map[string]bool, error) {
	existing := make(map[string]bool, len(externalIDs))
	for _, batch := range chunk(externalIDs, chunkSize) {
		args := make([]any, 0, len(batch)+1)
		args = append(args, sourceID)
		placeholders := make([]string, len(batch))
		for i, id := range batch {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query := fmt.Sprintf(
			"SELECT external_id FROM ingested_events WHERE source_id = ? AND external_id IN (%s)",
			joinPlaceholders(placeholders),
		)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query existing external ids: %w", err)
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

func joinPlaceholders(p []string) string {
	out := ""
	for i, s := range p {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

// InsertEvents bulk-inserts new ingested events inside one
// transaction, skipping nothing — callers must have already filtered
// out existing external_ids via ExistingExternalIDs.
func (s *Store) InsertEvents(ctx context.Context, events []models.IngestedEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ingested_events (
			id, source_id, external_id, event_type, title, description, severity,
			latitude, longitude, location_name, raw_payload, ingested_at,
			processed, processed_at, disaster_id, prediction_ids
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		raw, err := json.Marshal(e.RawPayload)
		if err != nil {
			return fmt.Errorf("marshal raw payload for %s: %w", e.ExternalID, err)
		}
		predictionIDs, err := json.Marshal(e.PredictionIDs)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, e.ID, e.SourceID, e.ExternalID, e.EventType, e.Title,
			e.Description, e.Severity, e.Latitude, e.Longitude, e.LocationName, string(raw),
			e.IngestedAt, e.Processed, e.ProcessedAt, e.DisasterID, string(predictionIDs))
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ExternalID, err)
		}
	}

	return tx.Commit()
}

// MarkEventProcessed sets processed=true, processed_at=now,
// disaster_id and prediction_ids on one event. Once processed is
// true it is never reverted.
func (s *Store) MarkEventProcessed(ctx context.Context, id string, disasterID string, predictionIDs []string, processedAt sql.NullTime) error {
	ids, err := json.Marshal(predictionIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE ingested_events
		SET processed = 1, processed_at = ?, disaster_id = ?, prediction_ids = ?
		WHERE id = ? AND processed = 0
	`, processedAt, disasterID, string(ids), id)
	return err
}

func (s *Store) ListEvents(ctx context.Context, f Filter) ([]models.IngestedEvent, error) {
	query := `SELECT id, source_id, external_id, event_type, title, description, severity,
		latitude, longitude, location_name, raw_payload, ingested_at, processed, processed_at,
		disaster_id, prediction_ids FROM ingested_events`
	where, args := f.whereClause()
	suffix, sargs := f.suffix("ingested_at")
	query += where + suffix
	args = append(args, sargs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IngestedEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.IngestedEvent, error) {
	var e models.IngestedEvent
	var raw, predictionIDs string
	var disasterID sql.NullString
	var processedAt sql.NullTime

	err := row.Scan(&e.ID, &e.SourceID, &e.ExternalID, &e.EventType, &e.Title, &e.Description,
		&e.Severity, &e.Latitude, &e.Longitude, &e.LocationName, &raw, &e.IngestedAt,
		&e.Processed, &processedAt, &disasterID, &predictionIDs)
	if err != nil {
		return e, err
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.RawPayload); err != nil {
			return e, fmt.Errorf("unmarshal raw payload: %w", err)
		}
	}
	if predictionIDs != "" {
		if err := json.Unmarshal([]byte(predictionIDs), &e.PredictionIDs); err != nil {
			return e, err
		}
	}
	if disasterID.Valid {
		e.DisasterID = &disasterID.String
	}
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	return e, nil
}
