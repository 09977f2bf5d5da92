// Package anomaly flags operational outliers in resource consumption,
// request volume, and disaster severity escalation using a from-scratch
// isolation forest (no scikit-learn equivalent exists in the module's
// dependency surface), with rule-based explanations for each finding.
package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/config"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/store"
)

// Store is the subset of the store gateway the detector reads from
// and writes findings to.
type Store interface {
	ListResourcesSince(ctx context.Context, since time.Time, limit int) ([]models.Resource, error)
	ListResourceRequests(ctx context.Context, f store.Filter) ([]models.ResourceRequest, error)
	ListDisasters(ctx context.Context, f store.Filter) ([]models.Disaster, error)
	InsertAnomalyAlert(ctx context.Context, a *models.AnomalyAlert) error
}

const randomState = 42

// Detector runs the three metric-family isolation-forest passes.
type Detector struct {
	store         Store
	contamination float64
	minSamples    int
	lookbackHours int
}

func NewDetector(store Store, cfg config.AnomalyConfig) *Detector {
	return &Detector{
		store:         store,
		contamination: cfg.Contamination,
		minSamples:    cfg.MinSamples,
		lookbackHours: cfg.LookbackHours,
	}
}

// sample is one row of a metric-family time series: a flat feature
// vector plus the raw context persisted alongside any finding.
type sample struct {
	features []float64
	context  map[string]any
}

// RunDetection gathers all three metric-family series, runs isolation
// forest detection on each, and persists one AnomalyAlert per finding.
// A persistence failure for one alert is logged and does not stop the
// rest — matching the teacher's best-effort insert loops elsewhere.
func (d *Detector) RunDetection(ctx context.Context) ([]models.AnomalyAlert, error) {
	since := time.Now().UTC().Add(-time.Duration(d.lookbackHours*3) * time.Hour)

	var stored []models.AnomalyAlert

	if samples, keys, err := d.resourceConsumptionSeries(ctx, since); err != nil {
		slog.Error("anomaly: resource consumption series failed", "error", err.Error())
	} else {
		stored = append(stored, d.detectAndStore(ctx, samples, keys, models.AnomalyResourceConsumption)...)
	}

	if samples, keys, err := d.requestVolumeSeries(ctx, since); err != nil {
		slog.Error("anomaly: request volume series failed", "error", err.Error())
	} else {
		stored = append(stored, d.detectAndStore(ctx, samples, keys, models.AnomalyRequestVolume)...)
	}

	if samples, keys, err := d.severityEscalationSeries(ctx, since); err != nil {
		slog.Error("anomaly: severity escalation series failed", "error", err.Error())
	} else {
		stored = append(stored, d.detectAndStore(ctx, samples, keys, models.AnomalySeverityEscalation)...)
	}

	slog.Info("anomaly detection complete", "alerts", len(stored))
	return stored, nil
}

func (d *Detector) resourceConsumptionSeries(ctx context.Context, since time.Time) ([]sample, []string, error) {
	resources, err := d.store.ListResourcesSince(ctx, since, 500)
	if err != nil {
		return nil, nil, err
	}

	type bucket struct {
		typ      models.ResourceType
		hour     string
		count    int
		totalQty int
	}
	buckets := map[string]*bucket{}
	for _, r := range resources {
		hourKey := r.UpdatedAt.UTC().Format("2006-01-02T15")
		key := string(r.Type) + "_" + hourKey
		b, ok := buckets[key]
		if !ok {
			b = &bucket{typ: r.Type, hour: hourKey}
			buckets[key] = b
		}
		b.count++
		b.totalQty += r.Quantity
	}

	keys := []string{"count", "total_qty"}
	var samples []sample
	for _, key := range sortedBucketKeys(buckets) {
		b := buckets[key]
		samples = append(samples, sample{
			features: []float64{float64(b.count), float64(b.totalQty)},
			context:  map[string]any{"type": string(b.typ), "hour": b.hour, "count": b.count, "total_qty": b.totalQty},
		})
	}
	return samples, keys, nil
}

func sortedBucketKeys[V any](m map[string]*V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *Detector) requestVolumeSeries(ctx context.Context, since time.Time) ([]sample, []string, error) {
	requests, err := d.store.ListResourceRequests(ctx, store.Filter{
		RangeCol: "created_at", RangeSince: since, OrderBy: "created_at", Desc: true, Limit: 1000,
	})
	if err != nil {
		return nil, nil, err
	}

	type bucket struct {
		hour     string
		count    int
		critical int
		high     int
	}
	buckets := map[string]*bucket{}
	for _, r := range requests {
		hourKey := r.CreatedAt.UTC().Format("2006-01-02T15")
		b, ok := buckets[hourKey]
		if !ok {
			b = &bucket{hour: hourKey}
			buckets[hourKey] = b
		}
		b.count++
		switch r.Priority {
		case "critical":
			b.critical++
		case "high":
			b.high++
		}
	}

	keys := []string{"count", "critical", "high"}
	var samples []sample
	for _, key := range sortedBucketKeys(buckets) {
		b := buckets[key]
		samples = append(samples, sample{
			features: []float64{float64(b.count), float64(b.critical), float64(b.high)},
			context:  map[string]any{"hour": b.hour, "count": b.count, "critical": b.critical, "high": b.high},
		})
	}
	return samples, keys, nil
}

var severityOrdinal = map[models.Severity]float64{
	models.SeverityLow:      1,
	models.SeverityMedium:   2,
	models.SeverityHigh:     3,
	models.SeverityCritical: 4,
}

func (d *Detector) severityEscalationSeries(ctx context.Context, since time.Time) ([]sample, []string, error) {
	disasters, err := d.store.ListDisasters(ctx, store.Filter{
		RangeCol: "start_date", RangeSince: since, OrderBy: "start_date", Desc: true, Limit: 200,
	})
	if err != nil {
		return nil, nil, err
	}

	keys := []string{"severity_score", "casualties", "damage"}
	samples := make([]sample, 0, len(disasters))
	for _, dd := range disasters {
		severityScore := severityOrdinal[dd.Severity]
		casualties := 0
		if dd.Casualties != nil {
			casualties = *dd.Casualties
		}
		damage := 0.0
		if dd.EstimatedDamage != nil {
			damage = *dd.EstimatedDamage
		}
		samples = append(samples, sample{
			features: []float64{severityScore, float64(casualties), damage},
			context:  map[string]any{"disaster_id": dd.ID, "severity_score": severityScore, "casualties": casualties, "damage": damage},
		})
	}
	return samples, keys, nil
}

// candidate is one flagged row before severity classification and
// explanation text are attached.
type candidate struct {
	metricName    string
	metricValue   float64
	decisionValue float64
	expectedRange models.ExpectedRange
	context       map[string]any
}

func (d *Detector) detectAndStore(ctx context.Context, samples []sample, featureKeys []string, anomalyType models.AnomalyType) []models.AnomalyAlert {
	if len(samples) < d.minSamples {
		return nil
	}

	candidates := detectAnomalies(samples, featureKeys, d.contamination)
	if len(candidates) == 0 {
		return nil
	}

	var stored []models.AnomalyAlert
	for _, c := range candidates {
		severity := classifySeverity(c.decisionValue)
		alert := models.AnomalyAlert{
			ID:            uuid.NewString(),
			AnomalyType:   anomalyType,
			Severity:      severity,
			MetricName:    c.metricName,
			MetricValue:   c.metricValue,
			ExpectedRange: c.expectedRange,
			AnomalyScore:  c.decisionValue,
			ContextData:   c.context,
			AIExplanation: explain(anomalyType, c),
			Status:        models.AnomalyActive,
			DetectedAt:    time.Now().UTC(),
		}
		if err := d.store.InsertAnomalyAlert(ctx, &alert); err != nil {
			slog.Error("failed to store anomaly alert", "type", anomalyType, "metric", c.metricName, "error", err.Error())
			continue
		}
		stored = append(stored, alert)
	}
	return stored
}

// detectAnomalies fits one isolation forest over samples and returns a
// candidate for every point whose decision value falls in the
// configured contamination tail.
func detectAnomalies(samples []sample, featureKeys []string, contamination float64) []candidate {
	features := make([][]float64, len(samples))
	for i, s := range samples {
		features[i] = s.features
	}

	forest := NewIsolationForest(features, randomState)

	rawScores := make([]float64, len(features))
	scoreSamples := make([]float64, len(features))
	for i, f := range features {
		rawScores[i] = forest.RawScore(f)
		scoreSamples[i] = -rawScores[i]
	}

	offset := percentile(scoreSamples, contamination*100)

	anomalous := make([]bool, len(features))
	decision := make([]float64, len(features))
	for i := range features {
		decision[i] = scoreSamples[i] - offset
		anomalous[i] = decision[i] < 0
	}

	var inlierIdx []int
	for i, a := range anomalous {
		if !a {
			inlierIdx = append(inlierIdx, i)
		}
	}
	if len(inlierIdx) == 0 {
		for i := range features {
			inlierIdx = append(inlierIdx, i)
		}
	}

	numAttrs := len(featureKeys)
	inlierMeans := make([]float64, numAttrs)
	expectedLowerPerAttr := make([]float64, numAttrs)
	expectedUpperPerAttr := make([]float64, numAttrs)
	for attr := 0; attr < numAttrs; attr++ {
		col := make([]float64, len(inlierIdx))
		for j, idx := range inlierIdx {
			col[j] = features[idx][attr]
		}
		inlierMeans[attr] = mean(col)
		expectedLowerPerAttr[attr] = percentile(col, 5)
		expectedUpperPerAttr[attr] = percentile(col, 95)
	}
	expectedRange := models.ExpectedRange{
		Lower: mean(expectedLowerPerAttr),
		Upper: mean(expectedUpperPerAttr),
	}

	var candidates []candidate
	for i, a := range anomalous {
		if !a {
			continue
		}
		maxDeviationIdx := 0
		maxDeviation := 0.0
		for attr := 0; attr < numAttrs; attr++ {
			dev := math.Abs(features[i][attr] - inlierMeans[attr])
			if dev > maxDeviation {
				maxDeviation = dev
				maxDeviationIdx = attr
			}
		}
		candidates = append(candidates, candidate{
			metricName:    featureKeys[maxDeviationIdx],
			metricValue:   features[i][maxDeviationIdx],
			decisionValue: decision[i],
			expectedRange: expectedRange,
			context:       samples[i].context,
		})
	}
	return candidates
}

func classifySeverity(decisionValue float64) models.Severity {
	switch {
	case decisionValue < -0.3:
		return models.SeverityCritical
	case decisionValue < -0.2:
		return models.SeverityHigh
	case decisionValue < -0.1:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func explain(anomalyType models.AnomalyType, c candidate) string {
	switch anomalyType {
	case models.AnomalyResourceConsumption:
		return fmt.Sprintf(
			"Unusual %s detected (value: %.1f, expected: %.1f-%.1f). This may indicate a sudden surge in resource usage that requires attention.",
			c.metricName, c.metricValue, c.expectedRange.Lower, c.expectedRange.Upper)
	case models.AnomalyRequestVolume:
		return fmt.Sprintf(
			"Request volume anomaly detected for %s (value: %.0f). This spike could indicate an emerging crisis or a surge of victims needing help.",
			c.metricName, c.metricValue)
	case models.AnomalySeverityEscalation:
		return fmt.Sprintf(
			"Severity escalation anomaly detected for %s (value: %.1f). Rapid severity increases may signal a worsening disaster requiring immediate response.",
			c.metricName, c.metricValue)
	default:
		return fmt.Sprintf("Anomaly detected: %s = %.2f (score: %.3f)", c.metricName, c.metricValue, c.decisionValue)
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// percentile computes the p-th percentile (0-100) of xs using linear
// interpolation between closest ranks, matching the default numpy
// behavior the original relied on.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
