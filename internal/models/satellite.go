package models

import "time"

type FireConfidence string

const (
	FireConfidenceLow     FireConfidence = "low"
	FireConfidenceNominal FireConfidence = "nominal"
	FireConfidenceHigh    FireConfidence = "high"
)

// SatelliteObservation is one fire-hotspot row from the NASA FIRMS feed.
type SatelliteObservation struct {
	ID          string
	ExternalID  string
	Latitude    float64
	Longitude   float64
	Brightness  float64
	FRP         float64
	Confidence  FireConfidence
	Satellite   string
	Instrument  string
	AcqDatetime time.Time
	Daynight    string
	RawPayload  map[string]any
	CreatedAt   time.Time
}

// HotspotSummary aggregates nearby satellite observations for use as
// spread-prediction features.
type HotspotSummary struct {
	HotspotCount int
	AvgFRP       float64
	MaxBrightness float64
	Latest       *SatelliteObservation
}
