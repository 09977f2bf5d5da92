package models

import "time"

type SitrepStatus string

const (
	SitrepGenerated SitrepStatus = "generated"
	SitrepFailed    SitrepStatus = "failed"
)

// SituationReport is one rule-based rollup of the platform's current
// state: active disasters, resource utilization, open requests,
// recent predictions, ingestion throughput, and anomaly alerts,
// rendered to markdown on a daily cron.
type SituationReport struct {
	ID               string
	ReportDate       string
	ReportType       string
	Title            string
	MarkdownBody     string
	Summary          string
	KeyMetrics       map[string]any
	GeneratedBy      string
	GenerationTimeMS int
	Status           SitrepStatus
	ErrorMessage     string
	CreatedAt        time.Time
}
