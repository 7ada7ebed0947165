// Package analysis evaluates the shade quality of physical walking routes
// supplied by an external routing provider.
package analysis

import (
	"time"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/coolwalk"
	"github.com/shadewalk/shadewalk/internal/shade"
	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/internal/solar"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

const (
	// RecommendThresholdPercent is the shade percentage above which a route
	// is flagged as recommended.
	RecommendThresholdPercent = 50.0

	// scoreDistanceScaleMeters is the route length at which the distance
	// component of RouteScore bottoms out.
	scoreDistanceScaleMeters = 2000.0
)

// RouteAnalysis is the shade evaluation of one physical route.
type RouteAnalysis struct {
	Route *coolwalk.Route

	// ShadePercentage and UVExposure always sum to 100.
	ShadePercentage float64
	UVExposure      float64

	IsRecommended bool

	DistanceMeters float64
}

// Analyzer evaluates routes against building shadows at a point in time.
type Analyzer struct{}

// NewAnalyzer creates a route shade analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze evaluates the shade along a route polyline at the given time.
// When the sun is below the horizon the whole route is trivially shaded and
// no shadow computation is needed. Otherwise each route segment's midpoint
// is classified by exact polygon membership and shaded distance accumulates
// proportionally to segment length.
func (a *Analyzer) Analyze(id string, polyline []geo.Coordinate, bs []*buildings.Building, at time.Time) *RouteAnalysis {
	route := &coolwalk.Route{ID: id}
	analysis := &RouteAnalysis{Route: route}
	if len(polyline) < 2 {
		analysis.UVExposure = 100
		return analysis
	}

	ref := polyline[0]
	sun := solar.PositionAt(at, ref.Lat, ref.Lon)

	if !sun.AboveHorizon() {
		// Night: planet-wide shade.
		for i := 1; i < len(polyline); i++ {
			route.Segments = append(route.Segments, coolwalk.Segment{
				ShadeMeters: geo.Haversine(polyline[i-1], polyline[i]),
			})
		}
		analysis.ShadePercentage = 100
		analysis.UVExposure = 0
		analysis.IsRecommended = true
		analysis.DistanceMeters = route.TotalMeters()
		return analysis
	}

	shadows := shadow.ProjectAll(bs, sun, ref.Lat)
	field := shade.NewField(shadows)

	var shadedMeters, totalMeters float64
	for i := 1; i < len(polyline); i++ {
		p, q := polyline[i-1], polyline[i]
		length := geo.Haversine(p, q)
		totalMeters += length

		mid := geo.Coordinate{
			Lat: (p.Lat + q.Lat) / 2,
			Lon: (p.Lon + q.Lon) / 2,
		}
		seg := coolwalk.Segment{}
		if field.PointInShade(mid) {
			seg.ShadeMeters = length
			shadedMeters += length
		} else {
			seg.SunMeters = length
		}
		route.Segments = append(route.Segments, seg)
	}

	if totalMeters > 0 {
		analysis.ShadePercentage = shadedMeters / totalMeters * 100
	}
	analysis.UVExposure = 100 - analysis.ShadePercentage
	analysis.IsRecommended = analysis.ShadePercentage > RecommendThresholdPercent
	analysis.DistanceMeters = totalMeters
	return analysis
}

// CompareRoutes selects the analysis with the highest shade percentage.
// Ties go to the shorter route. Returns -1 for an empty input.
func (a *Analyzer) CompareRoutes(analyses []*RouteAnalysis) int {
	best := -1
	for i, candidate := range analyses {
		if candidate == nil {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		current := analyses[best]
		if candidate.ShadePercentage > current.ShadePercentage ||
			(candidate.ShadePercentage == current.ShadePercentage &&
				candidate.DistanceMeters < current.DistanceMeters) {
			best = i
		}
	}
	return best
}

// RouteScore folds shade and absolute length into one comparable number:
// 0.7*shade% + 0.3*lengthBonus, where the length bonus decays linearly to
// zero at the 2 km reference distance.
func (a *Analyzer) RouteScore(analysis *RouteAnalysis) float64 {
	lengthBonus := 100 - analysis.DistanceMeters/scoreDistanceScaleMeters*100
	if lengthBonus < 0 {
		lengthBonus = 0
	}
	return 0.7*analysis.ShadePercentage + 0.3*lengthBonus
}
