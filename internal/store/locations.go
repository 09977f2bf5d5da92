package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

// FindNearbyLocation returns the first location within ±window
// degrees of (lat, lon), or nil if none exists.
func (s *Store) FindNearbyLocation(ctx context.Context, lat, lon, window float64) (*models.Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, city, state, country, latitude, longitude, created_at
		FROM locations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		LIMIT 1
	`, lat-window, lat+window, lon-window, lon+window)

	var loc models.Location
	err := row.Scan(&loc.ID, &loc.Name, &loc.City, &loc.State, &loc.Country, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// locationGridKey buckets (lat, lon) into the ±0.5° cell it falls in,
// so repeated lookups anywhere in the same cell share one cache entry.
func locationGridKey(lat, lon float64) string {
	bucket := func(v float64) float64 { return math.Floor(v/models.NearbyWindow) * models.NearbyWindow }
	return fmt.Sprintf("%.4f,%.4f", bucket(lat), bucket(lon))
}

// ResolveLocation finds a reusable location within the ±0.5° window
// or mints a stub with Unknown city/state/country, matching the
// orchestrator's location-resolution step. A bounded in-process cache
// sits in front of the SQLite lookup since this runs on every
// disaster-relevant event.
func (s *Store) ResolveLocation(ctx context.Context, lat, lon float64) (*models.Location, error) {
	key := locationGridKey(lat, lon)
	if loc, ok := s.locationCache.Get(key); ok {
		return loc, nil
	}

	if loc, err := s.FindNearbyLocation(ctx, lat, lon, models.NearbyWindow); err != nil {
		return nil, err
	} else if loc != nil {
		s.locationCache.Add(key, loc)
		return loc, nil
	}

	loc := &models.Location{
		ID:        uuid.NewString(),
		City:      "Unknown",
		State:     "Unknown",
		Country:   "Unknown",
		Latitude:  lat,
		Longitude: lon,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (id, name, city, state, country, latitude, longitude, created_at)
		VALUES (?,?,?,?,?,?,?,?)
	`, loc.ID, loc.Name, loc.City, loc.State, loc.Country, loc.Latitude, loc.Longitude, loc.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.locationCache.Add(key, loc)
	return loc, nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, city, state, country, latitude, longitude, created_at
		FROM locations WHERE id = ?
	`, id)
	var loc models.Location
	err := row.Scan(&loc.ID, &loc.Name, &loc.City, &loc.State, &loc.Country, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
