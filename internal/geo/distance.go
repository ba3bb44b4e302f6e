// Package geo wraps the great-circle distance used by the radius filter.
package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DistanceKm returns the haversine distance in kilometres between two
// latitude/longitude pairs.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	// orb points are (lon, lat)
	a := orb.Point{lon1, lat1}
	b := orb.Point{lon2, lat2}
	return orbgeo.DistanceHaversine(a, b) / 1000
}

// WithinRadius reports whether the point (lat, lon) lies within radiusKm
// of the centre.
func WithinRadius(centerLat, centerLon, radiusKm, lat, lon float64) bool {
	return DistanceKm(centerLat, centerLon, lat, lon) <= radiusKm
}
