// Package prediction implements the severity, spread, and impact
// predictors invoked by the ingestion cascade. Each is a fixed
// rule-based model standing in for a trained one, reachable behind
// the same predict(type, features) contract so a real model can be
// swapped in later without touching callers.
package prediction

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

const modelVersion = "1.0.0"

// Terrain is one entry of the ordered terrain vocabulary used to
// compute the spread predictor's terrain index feature. Order is
// fixed; the index itself (not the label) is what the model reads.
type Terrain string

const (
	TerrainFlat        Terrain = "flat"
	TerrainHilly       Terrain = "hilly"
	TerrainMountainous Terrain = "mountainous"
	TerrainForested    Terrain = "forested"
	TerrainUrban       Terrain = "urban"
	TerrainCoastal     Terrain = "coastal"
)

var terrainVocabulary = []Terrain{
	TerrainFlat, TerrainHilly, TerrainMountainous, TerrainForested, TerrainUrban, TerrainCoastal,
}

func terrainIndex(t Terrain) int {
	for i, v := range terrainVocabulary {
		if v == t {
			return i
		}
	}
	return 0
}

var geophysicalTypes = map[models.DisasterType]bool{
	models.DisasterEarthquake: true,
	models.DisasterVolcano:    true,
	models.DisasterTsunami:    true,
	models.DisasterLandslide:  true,
}

// Inputs is the raw, upstream-observed material every feature builder
// reads from. Callers assemble it from the disaster record, the
// nearest weather observation (or zero values when none exists), and
// whatever location/population context is on hand; zero fields take
// spec-mandated defaults rather than propagating as zero into a model.
type Inputs struct {
	Temperature   float64
	Humidity      float64
	WindSpeed     float64
	Pressure      float64
	Precipitation float64

	// Magnitude feeds current_area derivation for geophysical events
	// when KnownAreaKM2 is unset.
	Magnitude    float64
	KnownAreaKM2 float64

	WindDirection     float64
	ElevationM        float64
	VegetationDensity float64
	DaysActive        int
	Terrain           Terrain

	Population             int
	GDPPerCapita           float64
	InfrastructureDensity  float64
}

// Features is the assembled, model-ready feature set for one
// prediction invocation, keyed for both direct formula use and
// Prediction.Features persistence.
type Features map[string]any

// Client routes a prediction request to the predictor for its type.
type Client interface {
	Predict(ctx context.Context, disaster *models.Disaster, locationID string, predType models.PredictionType, in Inputs) (*models.Prediction, error)
}

type ruleBasedClient struct{}

func NewClient() Client {
	return ruleBasedClient{}
}

func (ruleBasedClient) Predict(ctx context.Context, disaster *models.Disaster, locationID string, predType models.PredictionType, in Inputs) (*models.Prediction, error) {
	switch predType {
	case models.PredictionSeverity:
		return predictSeverity(disaster, locationID, in), nil
	case models.PredictionSpread:
		return predictSpread(disaster, locationID, in), nil
	case models.PredictionImpact:
		return predictImpact(disaster, locationID, in), nil
	default:
		return nil, errUnknownPredictionType(predType)
	}
}

type errUnknownPredictionType models.PredictionType

func (e errUnknownPredictionType) Error() string {
	return "prediction: unknown prediction type " + string(e)
}

func oneHotDisasterType(f Features, t models.DisasterType) {
	for _, v := range models.DisasterTypeVocabulary {
		key := "type_" + string(v)
		if v == t {
			f[key] = 1
		} else {
			f[key] = 0
		}
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// buildSeverityFeatures assembles §4.7's severity feature set:
// weather readings plus three engineered interaction terms and a
// one-hot disaster-type vector.
func buildSeverityFeatures(disaster *models.Disaster, in Inputs) Features {
	f := Features{
		"temperature":     in.Temperature,
		"humidity":        in.Humidity,
		"wind_speed":      in.WindSpeed,
		"pressure":        in.Pressure,
		"wind_humidity_idx": in.WindSpeed * in.Humidity / 100,
		"pressure_drop":     1013.25 - in.Pressure,
		"temp_deviation":    math.Abs(in.Temperature - 25),
	}
	oneHotDisasterType(f, disaster.Type)
	return f
}

func predictSeverity(disaster *models.Disaster, locationID string, in Inputs) *models.Prediction {
	f := buildSeverityFeatures(disaster, in)
	score := (in.Temperature*0.3 + in.WindSpeed*0.5 + in.Humidity*0.2) / 100

	var severity models.Severity
	var confidence float64
	switch {
	case score > 0.75:
		severity, confidence = models.SeverityCritical, 0.85
	case score > 0.5:
		severity, confidence = models.SeverityHigh, 0.75
	case score > 0.3:
		severity, confidence = models.SeverityMedium, 0.65
	default:
		severity, confidence = models.SeverityLow, 0.55
	}

	return &models.Prediction{
		ID:                uuid.NewString(),
		DisasterID:        disaster.ID,
		LocationID:        locationID,
		PredictionType:    models.PredictionSeverity,
		Features:          f,
		ConfidenceScore:   clampConfidence(confidence),
		PredictedSeverity: string(severity),
		ModelVersion:      modelVersion,
	}
}

// currentAreaKM2 derives the spread model's starting footprint: the
// known area when one was observed, else magnitude·5 for geophysical
// events (earthquakes, volcanoes, tsunamis, landslides spread roughly
// in proportion to release energy), else a flat 50km² default for
// meteorological/hydrological events.
func currentAreaKM2(disaster *models.Disaster, in Inputs) float64 {
	if in.KnownAreaKM2 > 0 {
		return in.KnownAreaKM2
	}
	if geophysicalTypes[disaster.Type] && in.Magnitude > 0 {
		return in.Magnitude * 5
	}
	return 50
}

func buildSpreadFeatures(disaster *models.Disaster, in Inputs, currentArea float64) Features {
	windDirection := in.WindDirection
	if windDirection == 0 {
		windDirection = 180
	}
	elevation := in.ElevationM
	if elevation == 0 {
		elevation = 500
	}
	vegetation := in.VegetationDensity
	if vegetation == 0 {
		vegetation = 0.5
	}
	daysActive := in.DaysActive
	if daysActive == 0 {
		daysActive = 1
	}

	f := Features{
		"current_area_km2":   currentArea,
		"wind_speed":          in.WindSpeed,
		"wind_direction":      windDirection,
		"elevation_m":         elevation,
		"vegetation_density":  vegetation,
		"days_active":         daysActive,
		"terrain_index":       terrainIndex(in.Terrain),
	}
	oneHotDisasterType(f, disaster.Type)
	return f
}

// spreadUncertainty is the fallback model's own quantile band: a flat
// 15% either side of the point estimate, used to exercise the
// ci_lower/ci_upper confidence formula even without a trained
// quantile-regression model behind it.
const spreadUncertaintyFraction = 0.15

func predictSpread(disaster *models.Disaster, locationID string, in Inputs) *models.Prediction {
	currentArea := currentAreaKM2(disaster, in)
	f := buildSpreadFeatures(disaster, in, currentArea)

	spreadRate := in.WindSpeed * 0.5
	predictedArea := currentArea * (1 + spreadRate/100)

	ciLower := predictedArea * (1 - spreadUncertaintyFraction)
	ciUpper := predictedArea * (1 + spreadUncertaintyFraction)
	ciWidth := ciUpper - ciLower
	confidence := math.Max(0, 1-(ciWidth/math.Max(predictedArea, 1))*0.5)

	return &models.Prediction{
		ID:               uuid.NewString(),
		DisasterID:       disaster.ID,
		LocationID:       locationID,
		PredictionType:   models.PredictionSpread,
		Features:         f,
		ConfidenceScore:  clampConfidence(confidence),
		PredictedAreaKM2: &predictedArea,
		CILowerKM2:       &ciLower,
		CIUpperKM2:       &ciUpper,
		ModelVersion:     modelVersion,
	}
}

var severityOrdinal = map[models.Severity]float64{
	models.SeverityLow:      1,
	models.SeverityMedium:   2,
	models.SeverityHigh:     3,
	models.SeverityCritical: 4,
}

func buildImpactFeatures(disaster *models.Disaster, in Inputs) (Features, int, float64) {
	population := in.Population
	if population <= 0 {
		population = 10000
	}
	gdpPerCapita := in.GDPPerCapita
	if gdpPerCapita <= 0 {
		gdpPerCapita = 10000
	}
	infrastructure := in.InfrastructureDensity
	if infrastructure <= 0 {
		infrastructure = 0.5
	}
	severityScore := severityOrdinal[disaster.Severity]
	if severityScore == 0 {
		severityScore = severityOrdinal[models.SeverityMedium]
	}

	f := Features{
		"severity_score":          severityScore,
		"affected_population":     population,
		"gdp_per_capita":          gdpPerCapita,
		"infrastructure_density":  infrastructure,
	}
	oneHotDisasterType(f, disaster.Type)
	return f, population, severityScore
}

func predictImpact(disaster *models.Disaster, locationID string, in Inputs) *models.Prediction {
	f, population, severityScore := buildImpactFeatures(disaster, in)

	// normalize the 1-4 ordinal onto the 0-1 scale the original dummy
	// casualty/damage formulas were tuned against.
	normalizedSeverity := severityScore / 4.0

	casualtyRate := normalizedSeverity * 0.1
	casualties := int(float64(population) * casualtyRate)

	damagePerPerson := 5000 * normalizedSeverity
	damage := (float64(population) * damagePerPerson) / 1_000_000

	return &models.Prediction{
		ID:                  uuid.NewString(),
		DisasterID:          disaster.ID,
		LocationID:          locationID,
		PredictionType:      models.PredictionImpact,
		Features:            f,
		ConfidenceScore:     clampConfidence(0.68),
		PredictedCasualties: &casualties,
		PredictedDamageUSD:  &damage,
		ModelVersion:        modelVersion,
	}
}
