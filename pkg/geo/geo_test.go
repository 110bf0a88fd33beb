package geo

import (
	"math"
	"testing"
)

func TestKilometersSymmetry(t *testing.T) {
	points := [][4]float64{
		{40.7128, -74.0060, 51.5074, -0.1278},
		{-33.8688, 151.2093, 35.6762, 139.6503},
		{0, 0, 0, 180},
		{19.4326, -99.1332, 19.4978, -99.1269},
	}

	for _, p := range points {
		ab := Kilometers(p[0], p[1], p[2], p[3])
		ba := Kilometers(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("distance not symmetric: %f vs %f", ab, ba)
		}
	}
}

func TestKilometersIdentity(t *testing.T) {
	if d := Kilometers(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
		t.Errorf("distance from a point to itself = %f, want 0", d)
	}
}

func TestKilometersNewYorkToLondon(t *testing.T) {
	d := Kilometers(40.7128, -74.0060, 51.5074, -0.1278)
	if d < 5565 || d > 5575 {
		t.Errorf("NY-London distance = %f km, want ~5570 +/- 5", d)
	}
}

func TestDistanceKmRounding(t *testing.T) {
	d := DistanceKm(40.7128, -74.0060, 51.5074, -0.1278)
	if d.Exponent() < -3 {
		t.Errorf("distance %s not rounded to 3 decimal places", d)
	}
	if !d.Equal(d.Round(3)) {
		t.Errorf("distance %s changed by re-rounding", d)
	}
}

func TestCoordinateRanges(t *testing.T) {
	cases := []struct {
		lat, lng float64
		okLat    bool
		okLng    bool
	}{
		{0, 0, true, true},
		{90, 180, true, true},
		{-90, -180, true, true},
		{90.0001, 0, false, true},
		{-91, 0, false, true},
		{0, 180.5, true, false},
		{0, -200, true, false},
	}

	for _, c := range cases {
		if got := ValidLatitude(c.lat); got != c.okLat {
			t.Errorf("ValidLatitude(%f) = %v, want %v", c.lat, got, c.okLat)
		}
		if got := ValidLongitude(c.lng); got != c.okLng {
			t.Errorf("ValidLongitude(%f) = %v, want %v", c.lng, got, c.okLng)
		}
	}
}
