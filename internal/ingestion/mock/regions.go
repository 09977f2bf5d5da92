// Package mock generates deterministic-seeded synthetic disaster data
// matching each real adapter's schema exactly, so the ingestion
// cascade (disaster auto-create → predictions → anomaly detection →
// alerts) works end-to-end without any external API keys.
package mock

// Region is a real-world disaster-prone location plus the disaster
// types plausible there.
type Region struct {
	Name        string
	Lat         float64
	Lon         float64
	Country     string
	LikelyTypes []string
}

// Regions is the fixed 26-location table generators sample from.
var Regions = []Region{
	{"Tokyo, Japan", 35.6762, 139.6503, "Japan", []string{"earthquake", "tsunami"}},
	{"San Francisco, USA", 37.7749, -122.4194, "USA", []string{"earthquake", "wildfire"}},
	{"Kathmandu, Nepal", 27.7172, 85.3240, "Nepal", []string{"earthquake", "landslide"}},
	{"Istanbul, Turkey", 41.0082, 28.9784, "Turkey", []string{"earthquake"}},
	{"Lima, Peru", -12.0464, -77.0428, "Peru", []string{"earthquake", "tsunami"}},
	{"Santiago, Chile", -33.4489, -70.6693, "Chile", []string{"earthquake"}},
	{"Mexico City, Mexico", 19.4326, -99.1332, "Mexico", []string{"earthquake"}},
	{"Manila, Philippines", 14.5995, 120.9842, "Philippines", []string{"earthquake", "hurricane"}},
	{"Miami, USA", 25.7617, -80.1918, "USA", []string{"hurricane", "flood"}},
	{"Houston, USA", 29.7604, -95.3698, "USA", []string{"hurricane", "flood"}},
	{"Dhaka, Bangladesh", 23.8103, 90.4125, "Bangladesh", []string{"flood", "hurricane"}},
	{"Mumbai, India", 19.0760, 72.8777, "India", []string{"flood", "hurricane"}},
	{"Havana, Cuba", 23.1136, -82.3666, "Cuba", []string{"hurricane"}},
	{"Jakarta, Indonesia", -6.2088, 106.8456, "Indonesia", []string{"flood", "earthquake"}},
	{"Bangkok, Thailand", 13.7563, 100.5018, "Thailand", []string{"flood"}},
	{"Venice, Italy", 45.4408, 12.3155, "Italy", []string{"flood"}},
	{"Wuhan, China", 30.5928, 114.3055, "China", []string{"flood"}},
	{"Los Angeles, USA", 34.0522, -118.2437, "USA", []string{"wildfire", "earthquake"}},
	{"Sydney, Australia", -33.8688, 151.2093, "Australia", []string{"wildfire"}},
	{"Athens, Greece", 37.9838, 23.7275, "Greece", []string{"wildfire", "earthquake"}},
	{"Brasilia, Brazil", -15.8267, -47.9218, "Brazil", []string{"wildfire", "drought"}},
	{"Reykjavik, Iceland", 64.1466, -21.9426, "Iceland", []string{"volcano", "earthquake"}},
	{"Naples, Italy", 40.8518, 14.2681, "Italy", []string{"volcano", "earthquake"}},
	{"Yogyakarta, Indonesia", -7.7956, 110.3695, "Indonesia", []string{"volcano", "earthquake"}},
	{"Nairobi, Kenya", -1.2921, 36.8219, "Kenya", []string{"drought"}},
	{"Cape Town, South Africa", -33.9249, 18.4241, "South Africa", []string{"drought", "wildfire"}},
}

// SeverityWeights mirrors the realistic distribution most disasters
// actually follow: mostly low/medium, rarely critical.
var SeverityWeights = map[string]float64{
	"low":      0.30,
	"medium":   0.35,
	"high":     0.25,
	"critical": 0.10,
}

func regionsWith(disasterType string) []Region {
	var out []Region
	for _, r := range Regions {
		for _, t := range r.LikelyTypes {
			if t == disasterType {
				out = append(out, r)
				break
			}
		}
	}
	if len(out) == 0 {
		return Regions
	}
	return out
}
