package geo

import (
	"math"

	"github.com/example/roadside-dispatch/internal/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two WGS84
// coordinates in kilometers. Inputs are degree-valued and are not range
// checked: out-of-range values produce a geometrically meaningless but
// finite result, so callers wanting strictness must validate upstream.
func DistanceKm(a, b models.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// RoundKm rounds a distance to 2 decimal places for display. Filtering
// must happen on the unrounded value.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
