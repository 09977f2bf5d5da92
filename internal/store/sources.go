package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

// GetOrCreateSource returns the registry row for name, auto-creating
// it with the given defaults on first use — every adapter's
// self-registration path.
func (s *Store) GetOrCreateSource(ctx context.Context, name models.SourceName, sourceType, baseURL string, pollIntervalS int) (*models.SourceRegistry, error) {
	existing, err := s.GetSourceByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	row := &models.SourceRegistry{
		ID:            uuid.NewString(),
		SourceName:    name,
		SourceType:    sourceType,
		BaseURL:       baseURL,
		IsActive:      true,
		PollIntervalS: pollIntervalS,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO external_data_sources (id, source_name, source_type, base_url, is_active, poll_interval_s)
		VALUES (?,?,?,?,?,?)
	`, row.ID, row.SourceName, row.SourceType, row.BaseURL, row.IsActive, row.PollIntervalS)
	if err != nil {
		return nil, fmt.Errorf("create source %s: %w", name, err)
	}
	return row, nil
}

func (s *Store) GetSourceByName(ctx context.Context, name models.SourceName) (*models.SourceRegistry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_name, source_type, base_url, is_active, poll_interval_s,
			last_polled_at, last_status, last_error
		FROM external_data_sources WHERE source_name = ?
	`, name)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// UpdateSourceStatus records a poll outcome; error is truncated to
// 500 chars by the caller per the orchestrator's policy.
func (s *Store) UpdateSourceStatus(ctx context.Context, id string, polledAt sql.NullTime, status models.SourceStatus, errMsg string) error {
	var errArg any
	if errMsg != "" {
		errArg = errMsg
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE external_data_sources SET last_polled_at = ?, last_status = ?, last_error = ? WHERE id = ?
	`, polledAt, status, errArg, id)
	return err
}

func (s *Store) ListSources(ctx context.Context) ([]models.SourceRegistry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_name, source_type, base_url, is_active, poll_interval_s,
			last_polled_at, last_status, last_error
		FROM external_data_sources ORDER BY source_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SourceRegistry
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

func scanSource(row rowScanner) (*models.SourceRegistry, error) {
	var src models.SourceRegistry
	var lastPolled sql.NullTime
	var lastStatus, lastError sql.NullString

	err := row.Scan(&src.ID, &src.SourceName, &src.SourceType, &src.BaseURL, &src.IsActive,
		&src.PollIntervalS, &lastPolled, &lastStatus, &lastError)
	if err != nil {
		return nil, err
	}
	if lastPolled.Valid {
		src.LastPolledAt = &lastPolled.Time
	}
	if lastStatus.Valid {
		src.LastStatus = models.SourceStatus(lastStatus.String)
	}
	if lastError.Valid {
		src.LastError = lastError.String
	}
	return &src, nil
}
