// Package buildings provides building footprint data for shadow projection.
package buildings

import (
	"errors"
	"time"

	"github.com/shadewalk/shadewalk/pkg/geo"
)

// Repository and provider errors.
var (
	ErrProviderUnavailable = errors.New("building data provider unavailable")
	ErrNoBuildingsInArea   = errors.New("no buildings in the requested area")
	ErrInvalidBounds       = errors.New("invalid bounding box")
)

// DefaultHeightMeters is assumed for footprints without height data,
// roughly a five-storey building.
const DefaultHeightMeters = 15.0

// Building represents a building footprint with a height.
// The footprint is an ordered ring of at least 3 vertices; the closing
// edge back to the first vertex is implied.
type Building struct {
	ID           string
	Footprint    []geo.Coordinate
	HeightMeters float64
}

// Valid reports whether the building has a usable footprint and height.
func (b *Building) Valid() bool {
	return len(b.Footprint) >= 3 && b.HeightMeters > 0
}

// Centroid returns the mean of the footprint vertices. Good enough for
// labeling and cache keys; not an area-weighted centroid.
func (b *Building) Centroid() geo.Coordinate {
	if len(b.Footprint) == 0 {
		return geo.Coordinate{}
	}
	var lat, lon float64
	for _, v := range b.Footprint {
		lat += v.Lat
		lon += v.Lon
	}
	n := float64(len(b.Footprint))
	return geo.Coordinate{Lat: lat / n, Lon: lon / n}
}

// Bounds returns the bounding box of the footprint.
func (b *Building) Bounds() geo.BoundingBox {
	if len(b.Footprint) == 0 {
		return geo.BoundingBox{}
	}
	bb := geo.BoundingBox{
		MinLat: b.Footprint[0].Lat, MaxLat: b.Footprint[0].Lat,
		MinLon: b.Footprint[0].Lon, MaxLon: b.Footprint[0].Lon,
	}
	for _, v := range b.Footprint[1:] {
		if v.Lat < bb.MinLat {
			bb.MinLat = v.Lat
		}
		if v.Lat > bb.MaxLat {
			bb.MaxLat = v.Lat
		}
		if v.Lon < bb.MinLon {
			bb.MinLon = v.Lon
		}
		if v.Lon > bb.MaxLon {
			bb.MaxLon = v.Lon
		}
	}
	return bb
}

// ContainsPoint tests footprint membership with the ray-casting rule
// (odd crossing count means inside).
func (b *Building) ContainsPoint(p geo.Coordinate) bool {
	return pointInRing(p, b.Footprint)
}

// pointInRing is the standard even-odd ray-casting test against a closed ring.
func pointInRing(p geo.Coordinate, ring []geo.Coordinate) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lon < (vj.Lon-vi.Lon)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Snapshot is an immutable set of buildings for an area at a point in time.
type Snapshot struct {
	Buildings []*Building
	Bounds    geo.BoundingBox
	Source    string
	FetchedAt time.Time
}

// InArea returns the buildings whose bounds intersect the given box.
func (s *Snapshot) InArea(bounds geo.BoundingBox) []*Building {
	var out []*Building
	for _, b := range s.Buildings {
		bb := b.Bounds()
		if bb.MinLat > bounds.MaxLat || bb.MaxLat < bounds.MinLat ||
			bb.MinLon > bounds.MaxLon || bb.MaxLon < bounds.MinLon {
			continue
		}
		out = append(out, b)
	}
	return out
}
