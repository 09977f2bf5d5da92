package models

import "time"

type PredictionType string

const (
	PredictionSeverity PredictionType = "severity"
	PredictionSpread   PredictionType = "spread"
	PredictionImpact   PredictionType = "impact"
)

// Prediction is one model invocation's persisted output. It is
// immutable once written; corrections are a new row, never an update.
type Prediction struct {
	ID                string
	DisasterID        string
	LocationID         string
	PredictionType    PredictionType
	Features          map[string]any
	ConfidenceScore   float64
	PredictedSeverity string
	PredictedAreaKM2  *float64
	CILowerKM2        *float64
	CIUpperKM2        *float64
	PredictedCasualties *int
	PredictedDamageUSD  *float64
	ModelVersion      string
	CreatedAt         time.Time
}
