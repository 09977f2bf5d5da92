package models

import "time"

// Location is a named point on the map that disasters, weather
// observations, and resource needs are anchored to.
type Location struct {
	ID        string
	Name      string
	City      string
	State     string
	Country   string
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

// NearbyWindow is the ± lat/lon window used to decide whether an
// incoming event reuses an existing location instead of minting one.
const NearbyWindow = 0.5
