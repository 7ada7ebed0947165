package coolwalk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadewalk/shadewalk/internal/coolwalk"
)

func singleSegmentRoute(id string, sun, shadeMeters float64) *coolwalk.Route {
	return &coolwalk.Route{
		ID:       id,
		Segments: []coolwalk.Segment{{SunMeters: sun, ShadeMeters: shadeMeters}},
	}
}

func TestExperiencedLength_AlphaOneIsPhysical(t *testing.T) {
	tests := []struct{ sun, shade float64 }{
		{0, 0},
		{100, 0},
		{0, 250},
		{150, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.sun+tt.shade, coolwalk.ExperiencedLength(tt.sun, tt.shade, 1.0), 1e-9)
	}
}

func TestExperiencedLength_MonotoneInAlpha(t *testing.T) {
	prev := coolwalk.ExperiencedLength(100, 50, 1.0)
	for alpha := 1.2; alpha <= 3.0; alpha += 0.2 {
		current := coolwalk.ExperiencedLength(100, 50, alpha)
		assert.Greater(t, current, prev)
		prev = current
	}

	// With no sun distance, alpha has no effect.
	assert.Equal(t,
		coolwalk.ExperiencedLength(0, 50, 1.0),
		coolwalk.ExperiencedLength(0, 50, 3.0))
}

func TestFindOptimal_Scenario(t *testing.T) {
	// At alpha 2.0: (150,50) -> 350, (50,200) -> 300, (100,100) -> 300.
	routes := []*coolwalk.Route{
		singleSegmentRoute("a", 150, 50),
		singleSegmentRoute("b", 50, 200),
		singleSegmentRoute("c", 100, 100),
	}

	result := coolwalk.FindOptimal(routes, 2.0)
	require.NotNil(t, result)

	// Stable sort: route b wins the tie at 300 because it comes first.
	assert.Equal(t, 1, result.BestIndex)

	require.Len(t, result.Rankings, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{
		result.Rankings[0].Rank,
		result.Rankings[1].Rank,
		result.Rankings[2].Rank,
	})
	assert.InDelta(t, 300.0, result.Rankings[0].ExperiencedMeters, 1e-9)
	assert.Equal(t, 1, result.Rankings[0].RouteIndex)
	assert.Equal(t, 2, result.Rankings[1].RouteIndex)
	assert.InDelta(t, 350.0, result.Rankings[2].ExperiencedMeters, 1e-9)
}

func TestFindOptimal_Empty(t *testing.T) {
	result := coolwalk.FindOptimal(nil, 2.0)
	assert.Equal(t, -1, result.BestIndex)
	assert.Empty(t, result.Rankings)
}

func TestRouteExperiencedLength_MultiSegment(t *testing.T) {
	route := &coolwalk.Route{
		ID: "multi",
		Segments: []coolwalk.Segment{
			{SunMeters: 100, ShadeMeters: 0},
			{SunMeters: 0, ShadeMeters: 100},
			{SunMeters: 50, ShadeMeters: 50},
		},
	}

	// 100*2 + 100 + (50*2 + 50) = 450
	assert.InDelta(t, 450.0, coolwalk.RouteExperiencedLength(route, 2.0), 1e-9)
	assert.InDelta(t, 300.0, route.TotalMeters(), 1e-9)
	assert.InDelta(t, 0.5, route.ShadeRatio(), 1e-9)
}

func TestCoolWalkability_ShadedDetourVsShortest(t *testing.T) {
	shortest := singleSegmentRoute("direct", 200, 0)
	shaded := singleSegmentRoute("shaded", 20, 230)

	w := coolwalk.CoolWalkability(shaded, shortest, 2.0)

	// Shaded route: shadeRatio 0.92, experienced 270 vs 400 for the direct
	// route, so efficiency stays at 100 (capped) and the score is high.
	assert.Greater(t, w.Score, 80.0)
	assert.LessOrEqual(t, w.Score, 100.0)
	assert.InDelta(t, 50.0, w.DistanceIncreaseMeters, 1e-9)
	assert.InDelta(t, 25.0, w.DistanceIncreasePercent, 1e-9)
	assert.InDelta(t, 0.92, w.ShadeImprovement, 1e-2)
}

func TestCoolWalkability_IdenticalRoutes(t *testing.T) {
	r := singleSegmentRoute("same", 100, 100)

	w := coolwalk.CoolWalkability(r, r, 1.5)

	// efficiency = 100, shade score = 50 -> 0.6*50 + 0.4*100 = 70.
	assert.InDelta(t, 70.0, w.Score, 1e-9)
	assert.Zero(t, w.DistanceIncreaseMeters)
	assert.Zero(t, w.ShadeImprovement)
}

func TestRecommendedAlpha_Bands(t *testing.T) {
	tests := []struct {
		name        string
		uvIndex     float64
		sensitivity int
		expected    float64
	}{
		{"low uv neutral skin", 1, 6, 1.1},  // 1.0 * 1.1
		{"moderate uv", 4, 6, 1.4},          // 1.3 * 1.1, rounded
		{"high uv", 7, 6, 1.8},              // 1.6 * 1.1, rounded
		{"very high uv", 9, 6, 2.2},         // 2.0 * 1.1
		{"extreme uv", 11, 6, 2.8},          // 2.5 * 1.1, rounded
		{"sensitive skin scales up", 9, 1, 3.2}, // 2.0 * 1.6
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, coolwalk.RecommendedAlpha(tt.uvIndex, tt.sensitivity), 1e-9)
		})
	}
}

func TestRecommendedAlpha_Monotone(t *testing.T) {
	// Non-decreasing in UV index for fixed sensitivity.
	prev := coolwalk.RecommendedAlpha(0, 3)
	for uvi := 1.0; uvi <= 12; uvi++ {
		current := coolwalk.RecommendedAlpha(uvi, 3)
		assert.GreaterOrEqual(t, current, prev)
		prev = current
	}

	// Non-decreasing in sensitivity (lower tier = more sensitive = larger alpha).
	prev = coolwalk.RecommendedAlpha(8, 6)
	for tier := 5; tier >= 1; tier-- {
		current := coolwalk.RecommendedAlpha(8, tier)
		assert.GreaterOrEqual(t, current, prev)
		prev = current
	}
}

func TestRecommendedAlpha_ClampsSensitivity(t *testing.T) {
	assert.Equal(t, coolwalk.RecommendedAlpha(5, 1), coolwalk.RecommendedAlpha(5, 0))
	assert.Equal(t, coolwalk.RecommendedAlpha(5, 6), coolwalk.RecommendedAlpha(5, 9))
}
