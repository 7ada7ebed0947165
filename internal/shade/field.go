// Package shade answers spatial shade queries over a set of shadow polygons:
// point membership, region coverage, and coverage along a route polyline.
package shade

import (
	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

const (
	// MaxUVReduction is the ceiling on UV attenuation from building shade.
	// Full shade still transmits roughly 25% of ambient UV through diffuse
	// sky radiance, so the reduction never reaches 1.0.
	MaxUVReduction = 0.75

	// DefaultGridResolution is the sampling grid size for region queries.
	DefaultGridResolution = 20

	// DefaultSampleIntervalMeters is the spacing of samples along a route.
	DefaultSampleIntervalMeters = 10.0
)

// Field performs shade queries against an immutable shadow set.
type Field struct {
	shadows []*shadow.Polygon
}

// NewField creates a shade field over the given shadows. The slice is
// borrowed, not copied; callers must not mutate it afterwards.
func NewField(shadows []*shadow.Polygon) *Field {
	return &Field{shadows: shadows}
}

// ShadowCount returns the number of shadow polygons in the field.
func (f *Field) ShadowCount() int {
	return len(f.shadows)
}

// PointInShade reports whether the point lies inside any shadow polygon.
// Polygons are tested independently; membership in one is sufficient.
func (f *Field) PointInShade(p geo.Coordinate) bool {
	for _, s := range f.shadows {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// RegionShadePercent samples a gridResolution x gridResolution regular grid
// over bounds and returns the shaded fraction as a percentage in [0, 100].
func (f *Field) RegionShadePercent(bounds geo.BoundingBox, gridResolution int) float64 {
	if gridResolution <= 0 {
		gridResolution = DefaultGridResolution
	}
	if len(f.shadows) == 0 {
		return 0
	}

	latStep := (bounds.MaxLat - bounds.MinLat) / float64(gridResolution)
	lonStep := (bounds.MaxLon - bounds.MinLon) / float64(gridResolution)

	shaded := 0
	total := 0
	for i := 0; i < gridResolution; i++ {
		for j := 0; j < gridResolution; j++ {
			p := geo.Coordinate{
				Lat: bounds.MinLat + (float64(i)+0.5)*latStep,
				Lon: bounds.MinLon + (float64(j)+0.5)*lonStep,
			}
			total++
			if f.PointInShade(p) {
				shaded++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(shaded) / float64(total) * 100
}

// RouteShadePercent samples points along each polyline edge at
// sampleIntervalMeters spacing (at least one sample per edge) and returns
// the shaded fraction as a percentage in [0, 100]. A polyline of fewer than
// 2 points, or an empty shadow set, yields 0.
func (f *Field) RouteShadePercent(polyline []geo.Coordinate, sampleIntervalMeters float64) float64 {
	if len(polyline) < 2 || len(f.shadows) == 0 {
		return 0
	}
	if sampleIntervalMeters <= 0 {
		sampleIntervalMeters = DefaultSampleIntervalMeters
	}

	shaded := 0
	total := 0
	for i := 1; i < len(polyline); i++ {
		a, b := polyline[i-1], polyline[i]
		edgeLen := geo.Haversine(a, b)

		samples := int(edgeLen / sampleIntervalMeters)
		if samples < 1 {
			samples = 1
		}
		for s := 0; s < samples; s++ {
			t := float64(s) / float64(samples)
			p := geo.Coordinate{
				Lat: a.Lat + t*(b.Lat-a.Lat),
				Lon: a.Lon + t*(b.Lon-a.Lon),
			}
			total++
			if f.PointInShade(p) {
				shaded++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(shaded) / float64(total) * 100
}

// UVReductionFromShade maps a shade percentage to a UV reduction factor in
// [0, MaxUVReduction].
func UVReductionFromShade(shadePercent float64) float64 {
	if shadePercent <= 0 {
		return 0
	}
	if shadePercent >= 100 {
		return MaxUVReduction
	}
	return shadePercent / 100 * MaxUVReduction
}
