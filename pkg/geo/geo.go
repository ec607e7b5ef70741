package geo

import (
	"errors"
	"math"
)

// ErrInsufficientRouteData indicates a polyline too short to sample points from.
var ErrInsufficientRouteData = errors.New("not enough coordinates to generate points")

const (
	earthRadiusKm = 6371.0
	kmToMiles     = 0.621371
)

// Location represents a geographical coordinate pair.
// Latitude must be in [-90, 90] and longitude in [-180, 180];
// callers validate ranges before doing math on them.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the location is within coordinate ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Midpoint computes the point bisecting the great-circle arc between a and b.
func Midpoint(a, b Location) Location {
	lat1 := toRadians(a.Lat)
	lon1 := toRadians(a.Lng)
	lat2 := toRadians(b.Lat)
	lon2 := toRadians(b.Lng)

	bx := math.Cos(lat2) * math.Cos(lon2-lon1)
	by := math.Cos(lat2) * math.Sin(lon2-lon1)

	midLat := math.Atan2(
		math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by),
	)
	midLon := lon1 + math.Atan2(by, math.Cos(lat1)+bx)

	return Location{
		Lat: toDegrees(midLat),
		Lng: toDegrees(midLon),
	}
}

// HaversineDistanceMiles calculates the great-circle distance between two
// points in miles.
func HaversineDistanceMiles(a, b Location) float64 {
	lat1Rad := toRadians(a.Lat)
	lat2Rad := toRadians(b.Lat)
	deltaLat := toRadians(b.Lat - a.Lat)
	deltaLon := toRadians(b.Lng - a.Lng)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c * kmToMiles
}

// SampleAlongPolyline selects evenly spaced points along a polyline. The first
// and last coordinates are always included; intermediate points are picked at
// a step of max(1, len/desired). Returns ErrInsufficientRouteData when the
// polyline has fewer than two coordinates.
func SampleAlongPolyline(coords []Location, desired int) ([]Location, error) {
	if len(coords) < 2 {
		return nil, ErrInsufficientRouteData
	}
	if desired < 1 {
		desired = 1
	}

	step := len(coords) / desired
	if step < 1 {
		step = 1
	}

	points := []Location{coords[0]}
	for i := step; i < len(coords)-step; i += step {
		points = append(points, coords[i])
	}

	last := coords[len(coords)-1]
	if !containsPoint(points, last) {
		points = append(points, last)
	}

	return points, nil
}

func containsPoint(points []Location, p Location) bool {
	for _, existing := range points {
		if existing.Lat == p.Lat && existing.Lng == p.Lng {
			return true
		}
	}
	return false
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
