// Package sitrep generates a rule-based markdown situation report —
// active disasters, resource utilization, open victim requests,
// recent predictions, ingestion throughput, and anomaly alerts — with
// no external model call required, matching the daily cron the
// orchestrator runs it on.
package sitrep

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/store"
)

const modelUsed = "rule-based"

// Store is the subset of the store gateway the generator reads from
// and writes the finished report to.
type Store interface {
	ListDisasters(ctx context.Context, f store.Filter) ([]models.Disaster, error)
	ListAllResources(ctx context.Context) ([]models.Resource, error)
	ListResourceRequests(ctx context.Context, f store.Filter) ([]models.ResourceRequest, error)
	ListPredictionsSince(ctx context.Context, since time.Time, limit int) ([]models.Prediction, error)
	ListEvents(ctx context.Context, f store.Filter) ([]models.IngestedEvent, error)
	ListActiveAnomalyAlerts(ctx context.Context) ([]models.AnomalyAlert, error)
	InsertSituationReport(ctx context.Context, r *models.SituationReport) error
}

// Generator assembles and persists one situation report per call.
type Generator struct {
	store Store
}

func NewGenerator(st Store) *Generator {
	return &Generator{store: st}
}

type reportData struct {
	disasters      []models.Disaster
	resourceStatus map[string]int
	resourceByType map[models.ResourceType]int
	utilizationPct float64
	totalResources int
	requests       []models.ResourceRequest
	predictions    []models.Prediction
	events         []models.IngestedEvent
	anomalies      []models.AnomalyAlert
}

// Generate gathers current state, renders it to markdown, and
// persists the result. A gathering failure for one data family is
// logged and treated as empty rather than aborting the whole report,
// matching the per-family isolation the teacher's stack applies
// elsewhere.
func (g *Generator) Generate(ctx context.Context, reportType, generatedBy string) (*models.SituationReport, error) {
	start := time.Now()
	data := g.gather(ctx)

	reportDate := start.UTC().Format("2006-01-02")
	body := renderMarkdown(data, reportType, reportDate, start.UTC())
	title := fmt.Sprintf("Situation Report - %s", reportDate)
	summary := executiveSummaryLine(data)

	report := &models.SituationReport{
		ID:           uuid.NewString(),
		ReportDate:   reportDate,
		ReportType:   reportType,
		Title:        title,
		MarkdownBody: body,
		Summary:      summary,
		KeyMetrics:   keyMetrics(data),
		GeneratedBy:  generatedBy,
		Status:       models.SitrepGenerated,
		CreatedAt:    start.UTC(),
	}
	report.GenerationTimeMS = int(time.Since(start).Milliseconds())

	if err := g.store.InsertSituationReport(ctx, report); err != nil {
		return nil, fmt.Errorf("persist situation report: %w", err)
	}
	slog.Info("situation report generated", "title", title, "ms", report.GenerationTimeMS)
	return report, nil
}

func (g *Generator) gather(ctx context.Context) reportData {
	var data reportData

	disasters, err := g.store.ListDisasters(ctx, store.Filter{
		In:      map[string][]any{"status": {string(models.DisasterActive), string(models.DisasterMonitoring)}},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   50,
	})
	if err != nil {
		slog.Error("sitrep: gathering disasters failed", "error", err)
	}
	data.disasters = disasters

	resources, err := g.store.ListAllResources(ctx)
	if err != nil {
		slog.Error("sitrep: gathering resources failed", "error", err)
	}
	data.resourceStatus, data.resourceByType, data.totalResources, data.utilizationPct = summarizeResources(resources)

	requests, err := g.store.ListResourceRequests(ctx, store.Filter{
		In: map[string][]any{"status": {
			string(models.RequestPending), string(models.RequestApproved),
			string(models.RequestAssigned), string(models.RequestInProgress),
		}},
	})
	if err != nil {
		slog.Error("sitrep: gathering requests failed", "error", err)
	}
	data.requests = requests

	since := time.Now().UTC().Add(-24 * time.Hour)
	predictions, err := g.store.ListPredictionsSince(ctx, since, 100)
	if err != nil {
		slog.Error("sitrep: gathering predictions failed", "error", err)
	}
	data.predictions = predictions

	events, err := g.store.ListEvents(ctx, store.Filter{RangeCol: "ingested_at", RangeSince: since})
	if err != nil {
		slog.Error("sitrep: gathering ingestion stats failed", "error", err)
	}
	data.events = events

	anomalies, err := g.store.ListActiveAnomalyAlerts(ctx)
	if err != nil {
		slog.Error("sitrep: gathering anomalies failed", "error", err)
	}
	data.anomalies = anomalies

	return data
}

func summarizeResources(resources []models.Resource) (byStatus map[string]int, byType map[models.ResourceType]int, total int, utilizationPct float64) {
	byStatus = map[string]int{}
	byType = map[models.ResourceType]int{}
	total = len(resources)
	for _, r := range resources {
		byStatus[string(r.Status)]++
		byType[r.Type] += r.Quantity
	}
	allocated := byStatus[string(models.ResourceAllocated)] + byStatus[string(models.ResourceDeployed)] + byStatus[string(models.ResourceInTransit)]
	if total > 0 {
		utilizationPct = round1(float64(allocated) / float64(total) * 100)
	}
	return
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func executiveSummaryLine(data reportData) string {
	n := len(data.disasters)
	if n == 0 {
		return "No active disasters at this time. System is in standby mode."
	}
	critical := countCriticalDisasters(data.disasters)
	var b strings.Builder
	fmt.Fprintf(&b, "Currently tracking **%d active disaster(s)**", n)
	if critical > 0 {
		fmt.Fprintf(&b, " with **%d at critical severity**", critical)
	}
	fmt.Fprintf(&b, ". Resource utilization is at **%.1f%%** with **%d open victim request(s)**", data.utilizationPct, len(data.requests))
	if crit := countCriticalRequests(data.requests); crit > 0 {
		fmt.Fprintf(&b, " (%d critical)", crit)
	}
	b.WriteString(".")
	if n := len(data.anomalies); n > 0 {
		fmt.Fprintf(&b, " **%d anomaly alert(s) require attention.**", n)
	}
	return b.String()
}

func countCriticalDisasters(disasters []models.Disaster) int {
	n := 0
	for _, d := range disasters {
		if d.Severity == models.SeverityCritical {
			n++
		}
	}
	return n
}

func countCriticalRequests(requests []models.ResourceRequest) int {
	n := 0
	for _, r := range requests {
		if r.Priority == "critical" {
			n++
		}
	}
	return n
}

func keyMetrics(data reportData) map[string]any {
	return map[string]any{
		"active_disasters":         len(data.disasters),
		"resource_utilization_pct": data.utilizationPct,
		"total_open_requests":      len(data.requests),
		"critical_requests":        countCriticalRequests(data.requests),
		"predictions_24h":          len(data.predictions),
		"active_anomalies":         len(data.anomalies),
		"ingested_events_24h":      len(data.events),
	}
}

func renderMarkdown(data reportData, reportType, reportDate string, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Situation Report - %s\n", reportDate)
	fmt.Fprintf(&b, "*%s report generated at %s UTC*\n\n", titleCase(reportType), generatedAt.Format("2006-01-02T15:04:05"))

	b.WriteString("## 1. Executive Summary\n\n")
	b.WriteString(executiveSummaryLine(data) + "\n\n")

	critical := countCriticalDisasters(data.disasters)
	criticalRequests := countCriticalRequests(data.requests)

	b.WriteString("## 2. Key Metrics Dashboard\n\n")
	fmt.Fprintf(&b, "- **Active Disasters:** %d\n", len(data.disasters))
	fmt.Fprintf(&b, "- **Resource Utilization:** %.1f%%\n", data.utilizationPct)
	fmt.Fprintf(&b, "- **Total Resources:** %d\n", data.totalResources)
	fmt.Fprintf(&b, "- **Open Victim Requests:** %d\n", len(data.requests))
	fmt.Fprintf(&b, "  - Critical: %d\n", criticalRequests)
	fmt.Fprintf(&b, "- **ML Predictions (24h):** %d\n", len(data.predictions))
	fmt.Fprintf(&b, "- **Ingested Events (24h):** %d\n", len(data.events))
	fmt.Fprintf(&b, "- **Active Anomaly Alerts:** %d\n\n", len(data.anomalies))

	b.WriteString("## 3. Active Disasters Status\n\n")
	if len(data.disasters) == 0 {
		b.WriteString("No active disasters.\n\n")
	} else {
		for i, d := range data.disasters {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "### %s [%s]\n", nonEmptyTitle(d.Title), strings.ToUpper(string(d.Severity)))
			fmt.Fprintf(&b, "- **Type:** %s\n", d.Type)
			fmt.Fprintf(&b, "- **Status:** %s\n", d.Status)
			if d.AffectedPopulation != nil {
				fmt.Fprintf(&b, "- **Affected Population:** %d\n", *d.AffectedPopulation)
			}
			if d.Casualties != nil {
				fmt.Fprintf(&b, "- **Casualties:** %d\n", *d.Casualties)
			}
			if d.EstimatedDamage != nil {
				fmt.Fprintf(&b, "- **Estimated Damage:** $%.0f\n", *d.EstimatedDamage)
			}
			if d.Description != "" {
				fmt.Fprintf(&b, "- %s\n", truncate(d.Description, 200))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## 4. Resource Status & Gaps\n\n")
	if len(data.resourceStatus) > 0 {
		b.WriteString("| Status | Count |\n|--------|-------|\n")
		for _, status := range sortedStringKeys(data.resourceStatus) {
			fmt.Fprintf(&b, "| %s | %d |\n", status, data.resourceStatus[status])
		}
		b.WriteString("\n")
	}
	if len(data.resourceByType) > 0 {
		b.WriteString("**Quantity by type:**\n")
		for _, rtype := range sortedResourceTypeKeys(data.resourceByType) {
			fmt.Fprintf(&b, "- %s: %d\n", rtype, data.resourceByType[rtype])
		}
		b.WriteString("\n")
	}
	if data.utilizationPct > 80 {
		b.WriteString("> Warning: **Resource utilization above 80%** - consider mobilizing additional supplies.\n\n")
	}

	b.WriteString("## 5. Victim Requests Analysis\n\n")
	fmt.Fprintf(&b, "**%d** open requests.\n\n", len(data.requests))
	if criticalRequests > 0 {
		fmt.Fprintf(&b, "> **%d critical request(s)** need immediate attention.\n\n", criticalRequests)
	}

	b.WriteString("## 6. ML Predictions & Trends\n\n")
	if len(data.predictions) == 0 {
		b.WriteString("No predictions generated in the last 24 hours.\n\n")
	} else {
		fmt.Fprintf(&b, "**%d** predictions generated in the last 24 hours.\n\n", len(data.predictions))
	}

	b.WriteString("## 7. Anomalies & Alerts\n\n")
	if len(data.anomalies) == 0 {
		b.WriteString("No active anomaly alerts.\n\n")
	} else {
		for i, a := range data.anomalies {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- **[%s]** %s\n", strings.ToUpper(string(a.Severity)), a.AnomalyType)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 8. Recommendations\n\n")
	rec := 1
	if critical > 0 {
		fmt.Fprintf(&b, "%d. **Prioritize critical-severity disasters** - %d disaster(s) at critical level require immediate coordinator attention.\n", rec, critical)
		rec++
	}
	if criticalRequests > 0 {
		fmt.Fprintf(&b, "%d. **Address critical victim requests** - %d request(s) marked critical are awaiting action.\n", rec, criticalRequests)
		rec++
	}
	if data.utilizationPct > 80 {
		fmt.Fprintf(&b, "%d. **Replenish resources** - utilization is at %.1f%%, risking shortages.\n", rec, data.utilizationPct)
		rec++
	}
	if len(data.anomalies) > 0 {
		fmt.Fprintf(&b, "%d. **Investigate anomaly alerts** - %d active alert(s) may indicate emerging issues.\n", rec, len(data.anomalies))
		rec++
	}
	if rec == 1 {
		b.WriteString("No urgent recommendations at this time. Continue monitoring.\n")
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "*Report generated by rule-based sitrep engine - %s UTC*\n", generatedAt.Format("2006-01-02T15:04:05"))

	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nonEmptyTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedResourceTypeKeys(m map[models.ResourceType]int) []models.ResourceType {
	keys := make([]models.ResourceType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
