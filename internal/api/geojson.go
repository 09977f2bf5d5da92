package api

import (
	"github.com/reliefgrid/triage-platform/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders disasters as a GeoJSON FeatureCollection, looking
// up each disaster's point geometry from its resolved location.
func toGeoJSON(disasters []models.Disaster, locations map[string]models.Location) FeatureCollection {
	features := make([]Feature, 0, len(disasters))

	for _, d := range disasters {
		loc := locations[d.LocationID]
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{loc.Longitude, loc.Latitude},
			},
			Properties: map[string]any{
				"id":          d.ID,
				"type":        d.Type,
				"severity":    d.Severity,
				"status":      d.Status,
				"title":       d.Title,
				"description": d.Description,
				"location":    loc.Name,
				"start_date":  d.StartDate,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
