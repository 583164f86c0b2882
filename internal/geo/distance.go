// Package geo provides the small amount of spatial math the catalog
// API needs for "profiles near a point" queries.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// earthRadiusKm is the mean Earth radius used for haversine distance.
const earthRadiusKm = 6371.0

// Point builds a lng/lat coordinate. go-geom orders coordinates X
// (longitude) then Y (latitude).
func Point(lng, lat float64) geom.Coord {
	return geom.Coord{lng, lat}
}

// DistanceKm returns the great-circle distance between two lng/lat
// coordinates in kilometers.
func DistanceKm(a, b geom.Coord) float64 {
	lat1 := a.Y() * math.Pi / 180
	lat2 := b.Y() * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// WithinKm reports whether b lies within radiusKm of a.
func WithinKm(a, b geom.Coord, radiusKm float64) bool {
	return DistanceKm(a, b) <= radiusKm
}
