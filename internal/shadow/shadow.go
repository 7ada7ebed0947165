// Package shadow projects building shadows onto the ground plane from a
// given sun position. Shadows are flat polygons in lat/lon space, built by
// sweeping each footprint vertex away from the sun by the shadow length.
package shadow

import (
	"math"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/solar"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

const (
	// MaxShadowLengthMeters caps shadow length near the horizon. Below a few
	// degrees of altitude the tangent blows up and the projected polygon
	// stops being physically meaningful. Tunable policy, not physics.
	MaxShadowLengthMeters = 500.0

	// Opacity bounds for rendered shadows. A low sun casts visually softer
	// shadows due to atmospheric scattering; the opacity formula is a linear
	// approximation between these bounds, not a radiometric model.
	MinOpacity = 0.3
	MaxOpacity = 0.8
)

// Polygon is the shadow cast by a single building.
type Polygon struct {
	BuildingID string
	Vertices   []geo.Coordinate
	Opacity    float64
}

// Contains tests shadow membership with the ray-casting rule.
func (p *Polygon) Contains(c geo.Coordinate) bool {
	if len(p.Vertices) < 3 {
		return false
	}
	inside := false
	j := len(p.Vertices) - 1
	for i := 0; i < len(p.Vertices); i++ {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Lat > c.Lat) != (vj.Lat > c.Lat) &&
			c.Lon < (vj.Lon-vi.Lon)*(c.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Length returns the shadow length in meters for a building of the given
// height under the given sun altitude (radians). Returns 0 when the sun is
// at or below the horizon.
func Length(heightMeters, altitudeRad float64) float64 {
	if altitudeRad <= 0 {
		return 0
	}
	return heightMeters / math.Tan(altitudeRad)
}

// Opacity returns the render opacity for a shadow under the given sun
// altitude in degrees: min(0.8, 0.3 + altitude/90 * 0.5).
func Opacity(altitudeDeg float64) float64 {
	return math.Min(MaxOpacity, MinOpacity+altitudeDeg/90*0.5)
}

// Project computes the shadow polygon of a single building. Returns nil when
// the sun is below the horizon, the footprint is degenerate, or the shadow
// length is non-positive or beyond the cutoff.
func Project(b *buildings.Building, sun solar.Position, refLat float64) *Polygon {
	if !sun.AboveHorizon() || !b.Valid() {
		return nil
	}

	length := Length(b.HeightMeters, sun.AltitudeRad)
	if length <= 0 || length > MaxShadowLengthMeters {
		return nil
	}

	// Shadow points directly away from the sun.
	shadowAz := sun.AzimuthRad + math.Pi
	northMeters := length * math.Cos(shadowAz)
	eastMeters := length * math.Sin(shadowAz)

	// Footprint vertices followed by the reversed offset vertices form a
	// closed shape connecting the building base to the shadow tip.
	verts := make([]geo.Coordinate, 0, 2*len(b.Footprint))
	verts = append(verts, b.Footprint...)
	for i := len(b.Footprint) - 1; i >= 0; i-- {
		verts = append(verts, geo.Offset(b.Footprint[i], northMeters, eastMeters, refLat))
	}

	return &Polygon{
		BuildingID: b.ID,
		Vertices:   verts,
		Opacity:    Opacity(sun.AltitudeDeg),
	}
}

// ProjectAll computes shadows for a set of buildings. The result is empty
// when the sun is below the horizon; buildings that cast no usable shadow
// are skipped.
func ProjectAll(bs []*buildings.Building, sun solar.Position, refLat float64) []*Polygon {
	if !sun.AboveHorizon() {
		return nil
	}
	shadows := make([]*Polygon, 0, len(bs))
	for _, b := range bs {
		if p := Project(b, sun, refLat); p != nil {
			shadows = append(shadows, p)
		}
	}
	return shadows
}
