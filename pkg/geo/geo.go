// Package geo provides great-circle distance math over WGS84-style
// latitude/longitude pairs. It is a pure leaf package: no stores, no context.
package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

// Kilometers returns the raw haversine distance in kilometers between two
// points. Callers that need the fixed-precision contract use DistanceKm.
func Kilometers(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceKm returns the haversine distance rounded to 3 decimal places,
// half-up.
func DistanceKm(lat1, lng1, lat2, lng2 float64) decimal.Decimal {
	return decimal.NewFromFloat(Kilometers(lat1, lng1, lat2, lng2)).Round(3)
}

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is within [-180, 180].
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
