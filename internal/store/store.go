// Package store is the SQLite-backed Store Gateway: one typed,
// filtered repository per aggregate, sharing a single connection and
// migration set.
package store

import (
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/reliefgrid/triage-platform/internal/models"
)

// locationCacheSize bounds the in-process grid-cell cache ResolveLocation
// consults before hitting SQLite; the orchestrator calls ResolveLocation on
// every disaster-relevant event, so repeat hits on the same hot spot (an
// ongoing earthquake sequence, a flood with many SOS reports) are common.
const locationCacheSize = 4096

// Store is the shared SQLite handle every aggregate-specific gateway
// method set is defined on.
type Store struct {
	db            *sql.DB
	locationCache *lru.Cache[string, *models.Location]
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cache, err := lru.New[string, *models.Location](locationCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create location cache: %w", err)
	}

	s := &Store{db: db, locationCache: cache}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS external_data_sources (
		id TEXT PRIMARY KEY,
		source_name TEXT NOT NULL UNIQUE,
		source_type TEXT NOT NULL,
		base_url TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		poll_interval_s INTEGER NOT NULL,
		last_polled_at DATETIME,
		last_status TEXT,
		last_error TEXT
	);

	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT,
		city TEXT,
		state TEXT,
		country TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_locations_coords ON locations(latitude, longitude);

	CREATE TABLE IF NOT EXISTS ingested_events (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		external_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		title TEXT,
		description TEXT,
		severity TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		location_name TEXT,
		raw_payload TEXT,
		ingested_at DATETIME NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		processed_at DATETIME,
		disaster_id TEXT,
		prediction_ids TEXT,
		UNIQUE(source_id, external_id)
	);
	CREATE INDEX IF NOT EXISTS idx_events_external_id ON ingested_events(external_id);
	CREATE INDEX IF NOT EXISTS idx_events_processed ON ingested_events(processed);
	CREATE INDEX IF NOT EXISTS idx_events_ingested_at ON ingested_events(ingested_at);

	CREATE TABLE IF NOT EXISTS disasters (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL,
		title TEXT,
		description TEXT,
		location_id TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME,
		affected_population INTEGER,
		casualties INTEGER,
		estimated_damage REAL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (location_id) REFERENCES locations(id)
	);
	CREATE INDEX IF NOT EXISTS idx_disasters_start_date ON disasters(start_date);
	CREATE INDEX IF NOT EXISTS idx_disasters_type ON disasters(type);
	CREATE INDEX IF NOT EXISTS idx_disasters_updated ON disasters(created_at);

	CREATE TABLE IF NOT EXISTS satellite_observations (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		brightness REAL,
		frp REAL,
		confidence TEXT,
		satellite TEXT,
		instrument TEXT,
		acq_datetime DATETIME NOT NULL,
		daynight TEXT,
		raw_payload TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_satellite_coords ON satellite_observations(latitude, longitude);

	CREATE TABLE IF NOT EXISTS weather_observations (
		id TEXT PRIMARY KEY,
		location_id TEXT,
		temperature_c REAL,
		humidity_pct REAL,
		wind_speed_ms REAL,
		wind_deg REAL,
		pressure_hpa REAL,
		precipitation_mm REAL,
		visibility_m REAL,
		weather_main TEXT,
		weather_desc TEXT,
		observed_at DATETIME NOT NULL,
		source TEXT,
		raw_payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_weather_location ON weather_observations(location_id, observed_at);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		disaster_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		prediction_type TEXT NOT NULL,
		features TEXT,
		confidence_score REAL NOT NULL,
		predicted_severity TEXT,
		predicted_area_km2 REAL,
		ci_lower_km2 REAL,
		ci_upper_km2 REAL,
		predicted_casualties INTEGER,
		predicted_damage_usd REAL,
		model_version TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (disaster_id) REFERENCES disasters(id)
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_disaster ON predictions(disaster_id);

	CREATE TABLE IF NOT EXISTS alert_notifications (
		id TEXT PRIMARY KEY,
		event_id TEXT,
		disaster_id TEXT,
		prediction_id TEXT,
		recipient TEXT,
		recipient_role TEXT,
		subject TEXT,
		body TEXT,
		severity TEXT,
		channel TEXT NOT NULL,
		status TEXT NOT NULL,
		external_ref TEXT,
		error_message TEXT,
		created_at DATETIME NOT NULL,
		sent_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alert_notifications(created_at);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		priority INTEGER NOT NULL,
		status TEXT NOT NULL,
		location_id TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		expiry_date DATETIME,
		disaster_id TEXT,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resources_status ON resources(status);
	CREATE INDEX IF NOT EXISTS idx_resources_type ON resources(type);

	CREATE TABLE IF NOT EXISTS resource_needs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		urgency INTEGER NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		need_id TEXT NOT NULL,
		distance_km REAL NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE(resource_id),
		UNIQUE(need_id)
	);

	CREATE TABLE IF NOT EXISTS resource_requests (
		id TEXT PRIMARY KEY,
		description TEXT,
		items TEXT,
		resource_type TEXT,
		quantity INTEGER,
		priority TEXT,
		status TEXT NOT NULL,
		nlp_classification TEXT,
		urgency_signals TEXT,
		ai_confidence REAL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON resource_requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_created ON resource_requests(created_at);

	CREATE TABLE IF NOT EXISTS anomaly_alerts (
		id TEXT PRIMARY KEY,
		anomaly_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		metric_name TEXT,
		metric_value REAL,
		expected_lower REAL,
		expected_upper REAL,
		anomaly_score REAL,
		context_data TEXT,
		ai_explanation TEXT,
		status TEXT NOT NULL,
		detected_at DATETIME NOT NULL,
		acknowledged_by TEXT,
		acknowledged_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_anomaly_status ON anomaly_alerts(status);

	CREATE TABLE IF NOT EXISTS situation_reports (
		id TEXT PRIMARY KEY,
		report_date TEXT NOT NULL,
		report_type TEXT NOT NULL,
		title TEXT,
		markdown_body TEXT,
		summary TEXT,
		key_metrics TEXT,
		generated_by TEXT,
		generation_time_ms INTEGER,
		status TEXT NOT NULL,
		error_message TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sitrep_date ON situation_reports(report_date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}
