// Package qibla computes the direction and distance from a point on Earth to the Kaaba.
package qibla

import (
	"errors"
	"math"
)

// Kaaba coordinates in decimal degrees.
const (
	KaabaLatitude  = 21.4225
	KaabaLongitude = 39.8262
)

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// ErrInvalidCoordinates is returned for latitudes outside [-90, 90], longitudes outside [-180, 180], or non-finite values.
var ErrInvalidCoordinates = errors.New("qibla: invalid coordinates")

// Direction is the great-circle heading from a point to the Kaaba.
type Direction struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Bearing    float64 `json:"bearing"`
	DistanceKm float64 `json:"distanceKm"`
}

// Compute returns the initial bearing in degrees clockwise from true north, in [0, 360),
// and the haversine distance. At the Kaaba itself the bearing is reported as 0.
func Compute(lat, lng float64) (Direction, error) {
	if !valid(lat, -90, 90) || !valid(lng, -180, 180) {
		return Direction{}, ErrInvalidCoordinates
	}

	phi1, phi2 := radians(lat), radians(KaabaLatitude)
	dLambda := radians(KaabaLongitude - lng)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	bearing := math.Mod(degrees(math.Atan2(y, x))+360, 360)

	dPhi := phi2 - phi1
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	dist := 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))

	if dist < 1e-9 {
		bearing = 0
	}

	return Direction{
		Latitude:   lat,
		Longitude:  lng,
		Bearing:    round(bearing, 4),
		DistanceKm: round(dist, 3),
	}, nil
}

func valid(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
