package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) ListAvailableResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, quantity, priority, status, location_id, latitude, longitude,
			expiry_date, disaster_id, updated_at
		FROM resources WHERE status = ?
	`, models.ResourceAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ListResourcesSince returns resources touched at or after since,
// newest first, for the anomaly detector's consumption series.
func (s *Store) ListResourcesSince(ctx context.Context, since time.Time, limit int) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, quantity, priority, status, location_id, latitude, longitude,
			expiry_date, disaster_id, updated_at
		FROM resources WHERE updated_at >= ? ORDER BY updated_at DESC LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ListAllResources returns every resource regardless of status, for
// the situation report's utilization breakdown.
func (s *Store) ListAllResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, quantity, priority, status, location_id, latitude, longitude,
			expiry_date, disaster_id, updated_at
		FROM resources
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) ListResourceNeeds(ctx context.Context) ([]models.ResourceNeed, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, quantity, urgency, latitude, longitude FROM resource_needs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ResourceNeed
	for rows.Next() {
		var n models.ResourceNeed
		if err := rows.Scan(&n.ID, &n.Type, &n.Quantity, &n.Urgency, &n.Latitude, &n.Longitude); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) InsertResourceNeed(ctx context.Context, n *models.ResourceNeed) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resource_needs (id, type, quantity, urgency, latitude, longitude) VALUES (?,?,?,?,?,?)
	`, n.ID, n.Type, n.Quantity, n.Urgency, n.Latitude, n.Longitude)
	return err
}

func (s *Store) InsertResource(ctx context.Context, r *models.Resource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, type, quantity, priority, status, location_id, latitude,
			longitude, expiry_date, disaster_id, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, r.ID, r.Type, r.Quantity, r.Priority, r.Status, r.LocationID, r.Latitude, r.Longitude,
		r.ExpiryDate, r.DisasterID, r.UpdatedAt)
	return err
}

// ApplyAllocations transactionally marks each allocated resource as
// status=allocated with disaster_id set, and persists the Allocation
// rows — spec's "transactionally marks allocated resources" step.
func (s *Store) ApplyAllocations(ctx context.Context, allocations []models.Allocation, disasterID string) error {
	if len(allocations) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateStmt, err := tx.PrepareContext(ctx, `UPDATE resources SET status = ?, disaster_id = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer updateStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO allocations (id, resource_id, need_id, distance_km, created_at) VALUES (?,?,?,?,?)
	`)
	if err != nil {
		return err
	}
	defer insertStmt.Close()

	for _, a := range allocations {
		if _, err := updateStmt.ExecContext(ctx, models.ResourceAllocated, disasterID, a.ResourceID); err != nil {
			return err
		}
		if _, err := insertStmt.ExecContext(ctx, a.ID, a.ResourceID, a.NeedID, a.DistanceKM, a.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanResource(row rowScanner) (*models.Resource, error) {
	var r models.Resource
	var locationID sql.NullString
	var expiry sql.NullTime
	var disasterID sql.NullString

	err := row.Scan(&r.ID, &r.Type, &r.Quantity, &r.Priority, &r.Status, &locationID, &r.Latitude,
		&r.Longitude, &expiry, &disasterID, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if locationID.Valid {
		r.LocationID = locationID.String
	}
	if expiry.Valid {
		r.ExpiryDate = &expiry.Time
	}
	if disasterID.Valid {
		r.DisasterID = &disasterID.String
	}
	return &r, nil
}
