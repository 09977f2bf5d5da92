package mock

import "testing"

func TestGenerator_Earthquakes_Deterministic(t *testing.T) {
	a := NewGenerator(42).Earthquakes(3)
	b := NewGenerator(42).Earthquakes(3)
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("expected 3 quakes from each generator, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ExternalID != b[i].ExternalID {
			t.Errorf("same seed produced different external ids: %q vs %q", a[i].ExternalID, b[i].ExternalID)
		}
	}
}

func TestGenerator_Earthquakes_ExternalIDFormat(t *testing.T) {
	g := NewGenerator(1)
	for _, e := range g.Earthquakes(5) {
		if len(e.ExternalID) < len("usgs-") || e.ExternalID[:5] != "usgs-" {
			t.Errorf("expected usgs- prefixed external id, got %q", e.ExternalID)
		}
	}
}

func TestGenerator_GDACSEvents_ExternalIDFormat(t *testing.T) {
	g := NewGenerator(7)
	for _, e := range g.GDACSEvents(5) {
		if e.ExternalID[:6] != "gdacs-" {
			t.Errorf("expected gdacs- prefixed external id, got %q", e.ExternalID)
		}
	}
}

func TestGenerator_FireHotspots_Count(t *testing.T) {
	g := NewGenerator(3)
	hotspots := g.FireHotspots(10)
	if len(hotspots) != 10 {
		t.Errorf("expected 10 hotspots, got %d", len(hotspots))
	}
	for _, h := range hotspots {
		if h.Instrument != "VIIRS" {
			t.Errorf("expected VIIRS instrument, got %q", h.Instrument)
		}
	}
}

func TestGenerator_SocialSignals_SeverityAssigned(t *testing.T) {
	g := NewGenerator(5)
	for _, e := range g.SocialSignals(4) {
		if e.Severity == "" {
			t.Error("expected a severity to be assigned to every social signal")
		}
	}
}

func TestEstimateSocialSeverity(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"people trapped and dying, SOS", "critical"},
		{"urgent rescue needed, injured people", "high"},
		{"minor flood warning issued", "medium"},
		{"sunny day at the park", "low"},
	}
	for _, c := range cases {
		got := EstimateSocialSeverity(c.text)
		if string(got) != c.want {
			t.Errorf("EstimateSocialSeverity(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestGenerator_Weather_DefaultsSampleRegions(t *testing.T) {
	g := NewGenerator(9)
	obs := g.Weather(nil)
	if len(obs) < 3 || len(obs) > 6 {
		t.Errorf("expected 3-6 sampled regions, got %d", len(obs))
	}
	for _, o := range obs {
		if o.LocationID != nil {
			t.Error("expected nil LocationID for sampled mock regions")
		}
	}
}
