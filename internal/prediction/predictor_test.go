package prediction

import (
	"context"
	"testing"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func testDisaster(typ models.DisasterType, sev models.Severity) *models.Disaster {
	return &models.Disaster{ID: "d1", Type: typ, Severity: sev}
}

func TestPredictSeverity_ThresholdBands(t *testing.T) {
	client := NewClient()
	cases := []struct {
		name     string
		in       Inputs
		expected models.Severity
	}{
		{"calm", Inputs{Temperature: 10, WindSpeed: 5, Humidity: 20}, models.SeverityLow},
		{"critical", Inputs{Temperature: 90, WindSpeed: 90, Humidity: 90}, models.SeverityCritical},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pred, err := client.Predict(context.Background(), testDisaster(models.DisasterHurricane, models.SeverityMedium), "loc1", models.PredictionSeverity, c.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pred.PredictedSeverity != string(c.expected) {
				t.Errorf("expected severity %s, got %s", c.expected, pred.PredictedSeverity)
			}
			if pred.ConfidenceScore < 0 || pred.ConfidenceScore > 1 {
				t.Errorf("confidence out of [0,1]: %f", pred.ConfidenceScore)
			}
			if pred.Features["wind_humidity_idx"] != c.in.WindSpeed*c.in.Humidity/100 {
				t.Errorf("wind_humidity_idx not computed as expected")
			}
			if _, ok := pred.Features["type_hurricane"]; !ok {
				t.Error("expected one-hot disaster type key present")
			}
		})
	}
}

func TestPredictSpread_GeophysicalUsesMagnitudeArea(t *testing.T) {
	client := NewClient()
	disaster := testDisaster(models.DisasterEarthquake, models.SeverityHigh)
	pred, err := client.Predict(context.Background(), disaster, "loc1", models.PredictionSpread, Inputs{Magnitude: 6.0, WindSpeed: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.PredictedAreaKM2 == nil {
		t.Fatal("expected predicted area")
	}
	wantCurrentArea := 6.0 * 5
	wantPredicted := wantCurrentArea * (1 + (10*0.5)/100)
	if *pred.PredictedAreaKM2 != wantPredicted {
		t.Errorf("expected predicted area %f, got %f", wantPredicted, *pred.PredictedAreaKM2)
	}
	if pred.CILowerKM2 == nil || pred.CIUpperKM2 == nil {
		t.Fatal("expected confidence interval bounds")
	}
	if *pred.CILowerKM2 >= *pred.PredictedAreaKM2 || *pred.CIUpperKM2 <= *pred.PredictedAreaKM2 {
		t.Error("expected ci_lower < predicted < ci_upper")
	}
}

func TestPredictSpread_NonGeophysicalDefaultsArea(t *testing.T) {
	client := NewClient()
	disaster := testDisaster(models.DisasterFlood, models.SeverityMedium)
	pred, err := client.Predict(context.Background(), disaster, "loc1", models.PredictionSpread, Inputs{WindSpeed: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *pred.PredictedAreaKM2 != 50 {
		t.Errorf("expected default current area 50, got %f", *pred.PredictedAreaKM2)
	}
	if pred.Features["terrain_index"] != 0 {
		t.Errorf("expected default terrain index 0 (flat), got %v", pred.Features["terrain_index"])
	}
	if pred.Features["wind_direction"] != 180.0 {
		t.Errorf("expected default wind_direction 180, got %v", pred.Features["wind_direction"])
	}
}

func TestPredictImpact_SeverityOrdinalDrivesCasualties(t *testing.T) {
	client := NewClient()
	low := testDisaster(models.DisasterFlood, models.SeverityLow)
	critical := testDisaster(models.DisasterFlood, models.SeverityCritical)

	lowPred, err := client.Predict(context.Background(), low, "loc1", models.PredictionImpact, Inputs{Population: 20000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	criticalPred, err := client.Predict(context.Background(), critical, "loc1", models.PredictionImpact, Inputs{Population: 20000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *criticalPred.PredictedCasualties <= *lowPred.PredictedCasualties {
		t.Error("expected critical severity to predict more casualties than low severity")
	}
	if pred := criticalPred; pred.Features["severity_score"] != 4.0 {
		t.Errorf("expected severity_score 4 for critical, got %v", pred.Features["severity_score"])
	}
}

func TestPredictImpact_DefaultsWhenPopulationMissing(t *testing.T) {
	client := NewClient()
	disaster := testDisaster(models.DisasterWildfire, models.SeverityMedium)
	pred, err := client.Predict(context.Background(), disaster, "loc1", models.PredictionImpact, Inputs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Features["affected_population"] != 10000 {
		t.Errorf("expected default population 10000, got %v", pred.Features["affected_population"])
	}
	if pred.Features["gdp_per_capita"] != 10000.0 {
		t.Errorf("expected default gdp_per_capita 10000, got %v", pred.Features["gdp_per_capita"])
	}
}

func TestPredict_UnknownTypeErrors(t *testing.T) {
	client := NewClient()
	disaster := testDisaster(models.DisasterFlood, models.SeverityMedium)
	_, err := client.Predict(context.Background(), disaster, "loc1", models.PredictionType("bogus"), Inputs{})
	if err == nil {
		t.Fatal("expected error for unknown prediction type")
	}
}
