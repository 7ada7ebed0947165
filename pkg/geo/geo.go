// Package geo provides shared geographic primitives for the shade engine.
package geo

import (
	"math"
)

const (
	// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
	EarthRadiusMeters = 6371000

	// MetersPerDegreeLat is the approximate north-south length of one degree of latitude.
	MetersPerDegreeLat = 111320.0
)

// Coordinate represents a geographic point in WGS84 degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains checks if a point is within the bounding box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// Center returns the center point of the bounding box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Haversine calculates the great-circle distance between two points in meters.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// MetersPerDegreeLon returns the east-west length of one degree of longitude
// at the given reference latitude.
func MetersPerDegreeLon(refLat float64) float64 {
	return MetersPerDegreeLat * math.Cos(refLat*math.Pi/180)
}

// Offset returns the coordinate displaced by the given distances in meters,
// using the local meters-per-degree approximation. Accurate for the small
// displacements (tens to hundreds of meters) the shade engine works with.
func Offset(c Coordinate, northMeters, eastMeters, refLat float64) Coordinate {
	return Coordinate{
		Lat: c.Lat + northMeters/MetersPerDegreeLat,
		Lon: c.Lon + eastMeters/MetersPerDegreeLon(refLat),
	}
}
