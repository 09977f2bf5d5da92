package mock

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

// Generator produces synthetic rows with an injected *rand.Rand so
// tests get deterministic output; NewGenerator(time-seeded) is what
// adapters use at runtime.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func magnitudeToSeverity(mag float64) models.Severity {
	switch {
	case mag >= 7.0:
		return models.SeverityCritical
	case mag >= 6.0:
		return models.SeverityHigh
	case mag >= 5.0:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

var weatherConditions = [][2]string{
	{"Clear", "clear sky"},
	{"Clouds", "scattered clouds"},
	{"Clouds", "overcast clouds"},
	{"Rain", "moderate rain"},
	{"Rain", "heavy intensity rain"},
	{"Thunderstorm", "thunderstorm with rain"},
	{"Snow", "light snow"},
	{"Drizzle", "light drizzle"},
	{"Mist", "mist"},
}

// Weather generates realistic weather observations for the given
// locations, or 3-6 random disaster regions if none are given.
func (g *Generator) Weather(locations []models.Location) []models.WeatherObservation {
	if len(locations) == 0 {
		count := 3 + g.rng.Intn(4)
		idx := g.rng.Perm(len(Regions))[:count]
		for _, i := range idx {
			r := Regions[i]
			locations = append(locations, models.Location{ID: "", Name: r.Name, Latitude: r.Lat, Longitude: r.Lon})
		}
	}

	now := time.Now().UTC()
	out := make([]models.WeatherObservation, 0, len(locations))
	for _, loc := range locations {
		baseTemp := 30 - math.Abs(loc.Latitude)*0.4 + (g.rng.Float64()*10 - 5)
		cond := weatherConditions[g.rng.Intn(len(weatherConditions))]

		var precip float64
		switch {
		case strings.Contains(cond[0], "Rain") || strings.Contains(cond[0], "Thunderstorm"):
			precip = 1.0 + g.rng.Float64()*24.0
		case strings.Contains(cond[0], "Snow"):
			precip = 0.5 + g.rng.Float64()*7.5
		case strings.Contains(cond[0], "Drizzle"):
			precip = 0.1 + g.rng.Float64()*1.9
		}

		var locID *string
		if loc.ID != "" {
			id := loc.ID
			locID = &id
		}

		out = append(out, models.WeatherObservation{
			ID:              uuid.NewString(),
			LocationID:      locID,
			TemperatureC:    round1(baseTemp),
			HumidityPct:     float64(30 + g.rng.Intn(66)),
			WindSpeedMS:     round1(0.5 + g.rng.Float64()*24.5),
			WindDeg:         float64(g.rng.Intn(361)),
			PressureHPA:     float64(995 + g.rng.Intn(36)),
			PrecipitationMM: round1(precip),
			VisibilityM:     float64(2000 + g.rng.Intn(8001)),
			WeatherMain:     cond[0],
			WeatherDesc:     cond[1],
			ObservedAt:      now,
			Source:          "mock_weather",
			RawPayload: map[string]any{
				"mock":          true,
				"generator":     "mock",
				"location_name": loc.Name,
			},
		})
	}
	return out
}

// Earthquakes generates 0-3 synthetic USGS-shaped events (60% chance
// of zero, matching real-world sparsity) unless count is overridden.
func (g *Generator) Earthquakes(count int) []models.IngestedEvent {
	if count < 0 {
		if g.rng.Float64() < 0.6 {
			count = 0
		} else {
			count = 1 + g.rng.Intn(3)
		}
	}
	if count == 0 {
		return nil
	}

	eqRegions := regionsWith("earthquake")
	now := time.Now().UTC()
	out := make([]models.IngestedEvent, 0, count)

	for i := 0; i < count; i++ {
		region := eqRegions[g.rng.Intn(len(eqRegions))]
		lat := region.Lat + (g.rng.Float64()*1.0 - 0.5)
		lon := region.Lon + (g.rng.Float64()*1.0 - 0.5)

		magnitude := math.Min(round1(4.0+math.Abs(gaussian(g.rng, 0, 1.2))), 9.0)
		depthKM := round1(5 + g.rng.Float64()*295)
		severity := magnitudeToSeverity(magnitude)
		dirs := "NSEW"
		place := fmt.Sprintf("%dkm %c of %s", 5+g.rng.Intn(196), dirs[g.rng.Intn(4)], region.Name)
		usgsID := fmt.Sprintf("mock%010d", g.rng.Int63n(10000000000))

		var felt int
		if magnitude >= 5.0 {
			felt = g.rng.Intn(501)
		}
		var alert string
		if magnitude >= 5.5 {
			alert = string(severity)
		}
		tsunami := 0
		if magnitude >= 7.0 {
			tsunami = 1
		}

		out = append(out, models.IngestedEvent{
			ID:           uuid.NewString(),
			ExternalID:   "usgs-" + usgsID,
			EventType:    models.EventEarthquake,
			Title:        fmt.Sprintf("M%.1f - %s", magnitude, place),
			Description:  fmt.Sprintf("M%.1f earthquake at %s. Depth: %.1f km.", magnitude, place, depthKM),
			Severity:     severity,
			Latitude:     round4(lat),
			Longitude:    round4(lon),
			LocationName: place,
			IngestedAt:   now,
			RawPayload: map[string]any{
				"usgs_id":    usgsID,
				"magnitude":  magnitude,
				"mag_type":   "mww",
				"depth_km":   depthKM,
				"place":      place,
				"time":       now.UnixMilli(),
				"url":        "https://earthquake.usgs.gov/earthquakes/eventpage/" + usgsID,
				"tsunami":    tsunami,
				"felt":       felt,
				"alert":      alert,
				"status":     "reviewed",
				"type":       "earthquake",
				"mock":       true,
			},
		})
	}
	return out
}

type gdacsTemplate struct {
	disasterType string
	gdacsType    string
	titleFn      func(params map[string]any) string
	descFn       func(params map[string]any) string
	paramsFn     func(rng *rand.Rand, region string) map[string]any
}

var gdacsTemplates = []gdacsTemplate{
	{
		disasterType: "hurricane",
		gdacsType:    "TC",
		titleFn: func(p map[string]any) string {
			return fmt.Sprintf("Tropical Cyclone %s - Category %d", p["name"], p["cat"])
		},
		descFn: func(p map[string]any) string {
			return fmt.Sprintf("Tropical Cyclone %s with sustained winds of %dkm/h affecting %s. Category %d storm. Population exposed: ~%d.",
				p["name"], p["wind"], p["region"], p["cat"], p["pop"])
		},
		paramsFn: func(rng *rand.Rand, region string) map[string]any {
			names := []string{"Maria", "Irma", "Katrina", "Harvey", "Dorian", "Haiyan", "Amphan", "Nargis", "Sandy", "Michael", "Idai", "Winston"}
			return map[string]any{
				"name":   names[rng.Intn(len(names))],
				"cat":    1 + rng.Intn(5),
				"wind":   120 + rng.Intn(181),
				"pop":    50000 + rng.Intn(4950000),
				"region": region,
			}
		},
	},
	{
		disasterType: "flood",
		gdacsType:    "FL",
		titleFn: func(p map[string]any) string { return fmt.Sprintf("Flood Alert - %s", p["region"]) },
		descFn: func(p map[string]any) string {
			return fmt.Sprintf("Severe flooding reported in %s. Water level %.1fm above normal. Affected area: %dkm2. Population exposed: ~%d.",
				p["region"], p["level"], p["area"], p["pop"])
		},
		paramsFn: func(rng *rand.Rand, region string) map[string]any {
			return map[string]any{
				"level":  round1(0.5 + rng.Float64()*7.5),
				"area":   50 + rng.Intn(4951),
				"pop":    10000 + rng.Intn(1990000),
				"region": region,
			}
		},
	},
	{
		disasterType: "wildfire",
		gdacsType:    "WF",
		titleFn: func(p map[string]any) string { return fmt.Sprintf("Wildfire - %s", p["region"]) },
		descFn: func(p map[string]any) string {
			return fmt.Sprintf("Active wildfire detected near %s. Burning area: %dha. Fire spread rate: %dha/hr. Wind speed: %dkm/h.",
				p["region"], p["area"], p["rate"], p["wind"])
		},
		paramsFn: func(rng *rand.Rand, region string) map[string]any {
			return map[string]any{
				"area":   100 + rng.Intn(49901),
				"rate":   5 + rng.Intn(196),
				"wind":   10 + rng.Intn(71),
				"region": region,
			}
		},
	},
	{
		disasterType: "volcano",
		gdacsType:    "VO",
		titleFn: func(p map[string]any) string { return fmt.Sprintf("Volcanic Activity - %s", p["region"]) },
		descFn: func(p map[string]any) string {
			return fmt.Sprintf("Increased volcanic activity detected at %s. Alert level: %s. Ash plume height: %.1fkm.",
				p["region"], p["alert"], p["ash"])
		},
		paramsFn: func(rng *rand.Rand, region string) map[string]any {
			levels := []string{"Warning", "Watch", "Advisory"}
			return map[string]any{
				"alert":  levels[rng.Intn(len(levels))],
				"ash":    round1(1 + rng.Float64()*14),
				"region": region,
			}
		},
	},
	{
		disasterType: "drought",
		gdacsType:    "DR",
		titleFn: func(p map[string]any) string { return fmt.Sprintf("Drought Alert - %s", p["region"]) },
		descFn: func(p map[string]any) string {
			return fmt.Sprintf("Severe drought conditions in %s. Rainfall deficit: %d%% below average. Duration: %d months.",
				p["region"], p["deficit"], p["months"])
		},
		paramsFn: func(rng *rand.Rand, region string) map[string]any {
			return map[string]any{
				"deficit": 40 + rng.Intn(51),
				"months":  2 + rng.Intn(17),
				"region":  region,
			}
		},
	},
}

var gdacsAlertLevels = []string{"Green", "Orange", "Red"}
var gdacsAlertWeights = []float64{0.35, 0.40, 0.25}
var gdacsSeverityMap = map[string]models.Severity{
	"Red": models.SeverityCritical, "Orange": models.SeverityHigh, "Green": models.SeverityMedium,
}

// GDACSEvents generates 0-3 synthetic humanitarian-alert events (50%
// chance of zero) unless count is overridden.
func (g *Generator) GDACSEvents(count int) []models.IngestedEvent {
	if count < 0 {
		if g.rng.Float64() < 0.5 {
			count = 0
		} else {
			count = 1 + g.rng.Intn(3)
		}
	}
	if count == 0 {
		return nil
	}

	now := time.Now().UTC()
	out := make([]models.IngestedEvent, 0, count)

	for i := 0; i < count; i++ {
		tmpl := gdacsTemplates[g.rng.Intn(len(gdacsTemplates))]
		regions := regionsWith(tmpl.disasterType)
		region := regions[g.rng.Intn(len(regions))]

		lat := region.Lat + (g.rng.Float64()*2.0 - 1.0)
		lon := region.Lon + (g.rng.Float64()*2.0 - 1.0)

		params := tmpl.paramsFn(g.rng, region.Name)
		alertLevel := weightedChoice(g.rng, gdacsAlertLevels, gdacsAlertWeights)
		severity := gdacsSeverityMap[alertLevel]
		eventID := fmt.Sprintf("%d", 1000000+g.rng.Intn(9000000))

		out = append(out, models.IngestedEvent{
			ID:           uuid.NewString(),
			ExternalID:   fmt.Sprintf("gdacs-%s-%s", tmpl.gdacsType, eventID),
			EventType:    models.EventGDACSAlert,
			Title:        tmpl.titleFn(params),
			Description:  tmpl.descFn(params),
			Severity:     severity,
			Latitude:     round4(lat),
			Longitude:    round4(lon),
			LocationName: region.Name,
			IngestedAt:   now,
			RawPayload: map[string]any{
				"link":                 fmt.Sprintf("https://www.gdacs.org/report.aspx?eventid=%s", eventID),
				"pub_date":             now.Format("Mon, 02 Jan 2006 15:04:05 GMT"),
				"gdacs_event_type":     tmpl.gdacsType,
				"gdacs_alert_level":    alertLevel,
				"gdacs_event_id":       eventID,
				"disaster_type_mapped": tmpl.disasterType,
				"mock":                 true,
			},
		})
	}
	return out
}

// FireHotspots generates 0-15 synthetic satellite hotspot rows (40%
// chance of zero) unless count is overridden.
func (g *Generator) FireHotspots(count int) []models.SatelliteObservation {
	if count < 0 {
		if g.rng.Float64() < 0.4 {
			count = 0
		} else {
			count = 3 + g.rng.Intn(13)
		}
	}
	if count == 0 {
		return nil
	}

	fireRegions := regionsWith("wildfire")
	now := time.Now().UTC()
	satellites := []string{"N20", "NOAA-20", "Suomi NPP"}
	confidences := []models.FireConfidence{models.FireConfidenceLow, models.FireConfidenceNominal, models.FireConfidenceHigh}
	daynights := []string{"D", "N"}

	out := make([]models.SatelliteObservation, 0, count)
	for i := 0; i < count; i++ {
		region := fireRegions[g.rng.Intn(len(fireRegions))]
		lat := round4(region.Lat + (g.rng.Float64()*0.6 - 0.3))
		lon := round4(region.Lon + (g.rng.Float64()*0.6 - 0.3))
		acqDate := now.Format("2006-01-02")
		acqTime := fmt.Sprintf("%02d%02d", now.Hour(), now.Minute())

		out = append(out, models.SatelliteObservation{
			ID:          uuid.NewString(),
			ExternalID:  fmt.Sprintf("firms-%.4f-%.4f-%s-%s-%s", lat, lon, acqDate, acqTime, uuid.NewString()[:6]),
			Latitude:    lat,
			Longitude:   lon,
			Brightness:  round1(300 + g.rng.Float64()*200),
			FRP:         round1(5 + g.rng.Float64()*195),
			Confidence:  confidences[g.rng.Intn(len(confidences))],
			Satellite:   satellites[g.rng.Intn(len(satellites))],
			Instrument:  "VIIRS",
			AcqDatetime: now,
			Daynight:    daynights[g.rng.Intn(2)],
			RawPayload: map[string]any{
				"mock":   true,
				"region": region.Name,
			},
			CreatedAt: now,
		})
	}
	return out
}

var socialSOSTemplates = []string{
	"URGENT: Flooding in %s, people trapped on rooftops. Need immediate rescue! #SOS #disaster",
	"Major earthquake just hit %s. Buildings collapsed. Please send help! #earthquake #emergency",
	"Wildfire spreading rapidly near %s. Evacuations underway. #wildfire #help",
	"Severe flooding in %s. Roads washed out. Family of %d needs rescue. #flood #SOS",
	"Landslide in %s has buried homes. Multiple people missing. #landslide #rescue",
	"Critical water shortage in %s. %d days without clean water. Children sick. #drought #help",
	"SOS from %s: %d people stranded after flash flood. No food or water for %d days.",
}

// SocialSignals generates 0-4 synthetic social-SOS events (50% chance
// of zero) unless count is overridden.
func (g *Generator) SocialSignals(count int) []models.IngestedEvent {
	if count < 0 {
		if g.rng.Float64() < 0.5 {
			count = 0
		} else {
			count = 1 + g.rng.Intn(4)
		}
	}
	if count == 0 {
		return nil
	}

	now := time.Now().UTC()
	out := make([]models.IngestedEvent, 0, count)

	for i := 0; i < count; i++ {
		region := Regions[g.rng.Intn(len(Regions))]
		tmplIdx := g.rng.Intn(len(socialSOSTemplates))
		fam := 2 + g.rng.Intn(7)
		days := 1 + g.rng.Intn(7)

		var text string
		switch tmplIdx {
		case 3, 6:
			text = fmt.Sprintf(socialSOSTemplates[tmplIdx], region.Name, fam, days)
		case 5:
			text = fmt.Sprintf(socialSOSTemplates[tmplIdx], region.Name, days)
		default:
			text = fmt.Sprintf(socialSOSTemplates[tmplIdx], region.Name)
		}

		tweetID := fmt.Sprintf("%d", g.rng.Int63())
		lat := round4(region.Lat + (g.rng.Float64()*0.4 - 0.2))
		lon := round4(region.Lon + (g.rng.Float64()*0.4 - 0.2))
		severity := EstimateSocialSeverity(text)

		title := text
		if len(title) > 80 {
			title = title[:80] + "..."
		}

		out = append(out, models.IngestedEvent{
			ID:           uuid.NewString(),
			ExternalID:   "twitter-" + tweetID,
			EventType:    models.EventSocialSOS,
			Title:        "Social SOS: " + title,
			Description:  text,
			Severity:     severity,
			Latitude:     lat,
			Longitude:    lon,
			LocationName: region.Name,
			IngestedAt:   now,
			RawPayload: map[string]any{
				"tweet_id":   tweetID,
				"created_at": now.Format(time.RFC3339),
				"text":       text,
				"mock":       true,
			},
		})
	}
	return out
}

// EstimateSocialSeverity applies the critical/high word-density policy
// shared with the real social adapter.
func EstimateSocialSeverity(text string) models.Severity {
	lower := strings.ToLower(text)
	critical := []string{"trapped", "dying", "urgent", "critical", "sos", "life threatening"}
	high := []string{"help needed", "rescue", "emergency", "injured", "flood", "earthquake"}

	c := 0
	for _, w := range critical {
		if strings.Contains(lower, w) {
			c++
		}
	}
	h := 0
	for _, w := range high {
		if strings.Contains(lower, w) {
			h++
		}
	}

	switch {
	case c >= 2:
		return models.SeverityCritical
	case c >= 1 || h >= 2:
		return models.SeverityHigh
	case h >= 1:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func weightedChoice(rng *rand.Rand, items []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return items[i]
		}
		r -= w
	}
	return items[len(items)-1]
}

func gaussian(rng *rand.Rand, mean, stddev float64) float64 {
	return rng.NormFloat64()*stddev + mean
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
