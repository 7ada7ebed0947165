// Package coolwalk implements the experienced-distance route preference
// model: sun-exposed meters count more than shaded meters by a preference
// factor alpha, and routes are ranked by that subjective length.
package coolwalk

import (
	"math"
	"sort"
)

// Segment is a stretch of route split into sun and shade distance.
type Segment struct {
	SunMeters   float64
	ShadeMeters float64
}

// TotalMeters returns the physical length of the segment.
func (s Segment) TotalMeters() float64 {
	return s.SunMeters + s.ShadeMeters
}

// ShadeRatio returns the shaded fraction of the segment in [0, 1].
func (s Segment) ShadeRatio() float64 {
	total := s.TotalMeters()
	if total <= 0 {
		return 0
	}
	return s.ShadeMeters / total
}

// Route is a candidate walking route split into segments.
type Route struct {
	ID       string
	Segments []Segment

	// EstimatedMinutes is an optional walking-time estimate for display.
	EstimatedMinutes float64
}

// TotalMeters returns the physical route length, always re-derived from the
// segments so it cannot drift from them.
func (r *Route) TotalMeters() float64 {
	var total float64
	for _, s := range r.Segments {
		total += s.TotalMeters()
	}
	return total
}

// SunMeters returns the total sun-exposed distance.
func (r *Route) SunMeters() float64 {
	var total float64
	for _, s := range r.Segments {
		total += s.SunMeters
	}
	return total
}

// ShadeMeters returns the total shaded distance.
func (r *Route) ShadeMeters() float64 {
	var total float64
	for _, s := range r.Segments {
		total += s.ShadeMeters
	}
	return total
}

// ShadeRatio returns the shaded fraction of the whole route.
func (r *Route) ShadeRatio() float64 {
	total := r.TotalMeters()
	if total <= 0 {
		return 0
	}
	return r.ShadeMeters() / total
}

// ExperiencedLength returns the subjective length of a sun/shade split:
// sunMeters*alpha + shadeMeters. At alpha = 1 this is the physical length;
// larger alpha models stronger aversion to direct sun.
func ExperiencedLength(sunMeters, shadeMeters, alpha float64) float64 {
	return sunMeters*alpha + shadeMeters
}

// RouteExperiencedLength sums the experienced length over a route's segments.
func RouteExperiencedLength(r *Route, alpha float64) float64 {
	var total float64
	for _, s := range r.Segments {
		total += ExperiencedLength(s.SunMeters, s.ShadeMeters, alpha)
	}
	return total
}

// Ranking describes one route's standing among the candidates.
type Ranking struct {
	RouteIndex        int
	Rank              int // dense 1..N, ascending experienced length
	ExperiencedMeters float64
}

// Optimal is the result of ranking candidate routes.
type Optimal struct {
	BestIndex int
	Rankings  []Ranking // in rank order
}

// FindOptimal ranks routes by experienced length at the given alpha and
// returns the index of the best one. The sort is stable, so ties keep input
// order and the first among equals wins.
func FindOptimal(routes []*Route, alpha float64) *Optimal {
	if len(routes) == 0 {
		return &Optimal{BestIndex: -1}
	}

	rankings := make([]Ranking, len(routes))
	for i, r := range routes {
		rankings[i] = Ranking{
			RouteIndex:        i,
			ExperiencedMeters: RouteExperiencedLength(r, alpha),
		}
	}

	sort.SliceStable(rankings, func(a, b int) bool {
		return rankings[a].ExperiencedMeters < rankings[b].ExperiencedMeters
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	return &Optimal{
		BestIndex: rankings[0].RouteIndex,
		Rankings:  rankings,
	}
}

// Walkability scores a route against the shortest alternative.
type Walkability struct {
	// Score balances shade benefit against the experienced-length penalty,
	// clamped to [0, 100].
	Score float64

	// DistanceIncreaseMeters and DistanceIncreasePercent describe the
	// physical cost of this route versus the shortest one.
	DistanceIncreaseMeters  float64
	DistanceIncreasePercent float64

	// ShadeImprovement is this route's shade ratio minus the shortest
	// route's, in [-1, 1].
	ShadeImprovement float64
}

// CoolWalkability scores a route relative to the shortest route at the
// given alpha: 0.6 * shadeRatio*100 + 0.4 * efficiency, where efficiency
// penalizes experienced length beyond the shortest route's.
func CoolWalkability(route, shortest *Route, alpha float64) Walkability {
	shadeScore := route.ShadeRatio() * 100

	efficiency := 100.0
	shortestExp := RouteExperiencedLength(shortest, alpha)
	if shortestExp > 0 {
		routeExp := RouteExperiencedLength(route, alpha)
		efficiency = math.Max(0, 100-(routeExp/shortestExp-1)*100)
	}

	score := 0.6*shadeScore + 0.4*efficiency
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	increase := route.TotalMeters() - shortest.TotalMeters()
	increasePercent := 0.0
	if shortest.TotalMeters() > 0 {
		increasePercent = increase / shortest.TotalMeters() * 100
	}

	return Walkability{
		Score:                   score,
		DistanceIncreaseMeters:  increase,
		DistanceIncreasePercent: increasePercent,
		ShadeImprovement:        route.ShadeRatio() - shortest.ShadeRatio(),
	}
}

// RecommendedAlpha derives a sun-aversion factor from the UV index and the
// user's skin sensitivity tier, which follows the Fitzpatrick scale
// (1 = most UV-sensitive, 6 = least). More sensitive skin and higher UV
// both push alpha up. Rounded to one decimal.
func RecommendedAlpha(uvIndex float64, skinSensitivity int) float64 {
	var base float64
	switch {
	case uvIndex <= 2:
		base = 1.0
	case uvIndex <= 5:
		base = 1.3
	case uvIndex <= 7:
		base = 1.6
	case uvIndex <= 10:
		base = 2.0
	default:
		base = 2.5
	}

	if skinSensitivity < 1 {
		skinSensitivity = 1
	}
	if skinSensitivity > 6 {
		skinSensitivity = 6
	}
	alpha := base * (1 + float64(7-skinSensitivity)*0.1)

	return math.Round(alpha*10) / 10
}
