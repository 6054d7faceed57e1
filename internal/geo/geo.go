// Package geo provides the great-circle math shared by the detector,
// the dead reckoner and the correction layers. All functions are pure.
package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Point is a position in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Distance returns the haversine great-circle distance in meters between
// two points given in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Bearing returns the initial bearing from point 1 to point 2 in degrees,
// normalized to [0,360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return NormalizeHeading(math.Atan2(y, x) * 180 / math.Pi)
}

// ValidCoordinates reports whether lat/lon are inside the valid ranges.
// Range checks belong at the ingestion boundary; the formulas above accept
// any input.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// NormalizeHeading wraps a heading in degrees into [0,360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// NormalizeLongitude wraps a longitude in degrees into (-180,180].
func NormalizeLongitude(lon float64) float64 {
	l := math.Mod(lon-180, 360)
	if l <= 0 {
		l += 360
	}
	return l - 180
}
