package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 0, 0, 0, 0, 0, 0.001},
		{"equator quarter turn", 0, 0, 0, 90, 10007.5, 1},
		{"ny to london", 40.7128, -74.0060, 51.5074, -0.1278, 5570, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.want) > tc.tolerance {
				t.Errorf("Haversine(%v,%v,%v,%v) = %v, want ~%v", tc.lat1, tc.lon1, tc.lat2, tc.lon2, got, tc.want)
			}
		})
	}
}

func TestBuildDistanceMatrix(t *testing.T) {
	depots := []Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 6}}
	zones := []Point{{Lat: 0, Lon: 0.1}}

	matrix := BuildDistanceMatrix(depots, zones)
	if len(matrix) != 2 || len(matrix[0]) != 1 {
		t.Fatalf("unexpected matrix shape: %v", matrix)
	}
	if matrix[0][0] >= matrix[1][0] {
		t.Errorf("expected depot 0 closer to zone than depot 1: got %v vs %v", matrix[0][0], matrix[1][0])
	}
}

func TestWithinWindow(t *testing.T) {
	a := Point{Lat: 35.0, Lon: 139.0}
	if !WithinWindow(a, Point{Lat: 35.3, Lon: 139.2}, 0.5) {
		t.Errorf("expected point within 0.5 deg window to match")
	}
	if WithinWindow(a, Point{Lat: 36.0, Lon: 139.0}, 0.5) {
		t.Errorf("expected point outside 0.5 deg window to not match")
	}
}
