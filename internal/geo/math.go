package geo

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two
// points, ignoring elevation.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Lerp interpolates between a and b at fraction t, where t=0 yields a
// and t=1 yields b.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// LerpPosition interpolates every coordinate of two positions at fraction t.
func LerpPosition(a, b Position, t float64) Position {
	return Position{
		Latitude:  Lerp(a.Latitude, b.Latitude, t),
		Longitude: Lerp(a.Longitude, b.Longitude, t),
		Elevation: Lerp(a.Elevation, b.Elevation, t),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
