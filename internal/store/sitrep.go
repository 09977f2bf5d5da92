package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertSituationReport(ctx context.Context, r *models.SituationReport) error {
	keyMetrics, err := json.Marshal(r.KeyMetrics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO situation_reports (
			id, report_date, report_type, title, markdown_body, summary, key_metrics,
			generated_by, generation_time_ms, status, error_message, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`, r.ID, r.ReportDate, r.ReportType, r.Title, r.MarkdownBody, r.Summary, string(keyMetrics),
		r.GeneratedBy, r.GenerationTimeMS, r.Status, r.ErrorMessage, r.CreatedAt)
	return err
}

func (s *Store) GetLatestSituationReport(ctx context.Context) (*models.SituationReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, report_date, report_type, title, markdown_body, summary, key_metrics,
			generated_by, generation_time_ms, status, error_message, created_at
		FROM situation_reports WHERE status = ? ORDER BY created_at DESC LIMIT 1
	`, models.SitrepGenerated)
	r, err := scanSituationReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Store) ListSituationReports(ctx context.Context, limit, offset int) ([]models.SituationReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_date, report_type, title, markdown_body, summary, key_metrics,
			generated_by, generation_time_ms, status, error_message, created_at
		FROM situation_reports ORDER BY report_date DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SituationReport
	for rows.Next() {
		r, err := scanSituationReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanSituationReport(row rowScanner) (*models.SituationReport, error) {
	var r models.SituationReport
	var keyMetrics string
	err := row.Scan(&r.ID, &r.ReportDate, &r.ReportType, &r.Title, &r.MarkdownBody, &r.Summary,
		&keyMetrics, &r.GeneratedBy, &r.GenerationTimeMS, &r.Status, &r.ErrorMessage, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if keyMetrics != "" {
		if err := json.Unmarshal([]byte(keyMetrics), &r.KeyMetrics); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
