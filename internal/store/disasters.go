package store

import (
	"context"
	"database/sql"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func (s *Store) InsertDisaster(ctx context.Context, d *models.Disaster) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disasters (
			id, type, severity, status, title, description, location_id,
			start_date, end_date, affected_population, casualties, estimated_damage, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, d.ID, d.Type, d.Severity, d.Status, d.Title, d.Description, d.LocationID,
		d.StartDate, d.EndDate, d.AffectedPopulation, d.Casualties, d.EstimatedDamage, d.CreatedAt)
	return err
}

func (s *Store) GetDisaster(ctx context.Context, id string) (*models.Disaster, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, severity, status, title, description, location_id, start_date,
			end_date, affected_population, casualties, estimated_damage, created_at
		FROM disasters WHERE id = ?
	`, id)
	d, err := scanDisaster(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (s *Store) ListDisasters(ctx context.Context, f Filter) ([]models.Disaster, error) {
	query := `SELECT id, type, severity, status, title, description, location_id, start_date,
		end_date, affected_population, casualties, estimated_damage, created_at FROM disasters`
	where, args := f.whereClause()
	suffix, sargs := f.suffix("start_date")
	query += where + suffix
	args = append(args, sargs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Disaster
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *Store) CountDisasters(ctx context.Context, f Filter) (int, error) {
	query := `SELECT COUNT(*) FROM disasters`
	where, args := f.whereClause()
	query += where
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// UpdateDisasterStatus moves a disaster to a new status, e.g. active
// → resolved once downstream handling completes.
func (s *Store) UpdateDisasterStatus(ctx context.Context, id string, status models.DisasterStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE disasters SET status = ? WHERE id = ?`, status, id)
	return err
}

func scanDisaster(row rowScanner) (*models.Disaster, error) {
	var d models.Disaster
	var endDate sql.NullTime
	var affected, casualties sql.NullInt64
	var damage sql.NullFloat64

	err := row.Scan(&d.ID, &d.Type, &d.Severity, &d.Status, &d.Title, &d.Description, &d.LocationID,
		&d.StartDate, &endDate, &affected, &casualties, &damage, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		d.EndDate = &endDate.Time
	}
	if affected.Valid {
		v := int(affected.Int64)
		d.AffectedPopulation = &v
	}
	if casualties.Valid {
		v := int(casualties.Int64)
		d.Casualties = &v
	}
	if damage.Valid {
		d.EstimatedDamage = &damage.Float64
	}
	return &d, nil
}
