package pathfind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/pathfind"
	"github.com/shadewalk/shadewalk/internal/shade"
	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

var (
	start = geo.Coordinate{Lat: 35.6810, Lon: 139.7670}
	end   = geo.Coordinate{Lat: 35.6810, Lon: 139.7690}
)

func emptyFinder() *pathfind.Finder {
	return pathfind.NewFinder(shade.NewField(nil), nil)
}

func detourRatio(v float64) *float64 { return &v }

func TestFindPath_OpenGround(t *testing.T) {
	result := emptyFinder().FindPath(start, end, pathfind.Options{})
	require.NotNil(t, result)

	assert.False(t, result.Fallback)
	require.GreaterOrEqual(t, len(result.Path), 2)
	assert.Equal(t, start, result.Path[0])
	assert.Equal(t, end, result.Path[len(result.Path)-1])

	// On open ground the grid path should stay close to the direct line.
	direct := geo.Haversine(start, end)
	assert.Less(t, result.DistanceMeters, direct*1.15+25)
	assert.Greater(t, result.EstimatedMinutes, 0.0)
}

func TestFindPath_TrivialDistance(t *testing.T) {
	// Start and end in the same cell: nothing to search.
	closeEnd := geo.Coordinate{Lat: start.Lat, Lon: start.Lon + 0.00002}
	result := emptyFinder().FindPath(start, closeEnd, pathfind.Options{})

	require.NotNil(t, result)
	assert.Equal(t, start, result.Path[0])
	assert.Equal(t, closeEnd, result.Path[len(result.Path)-1])
}

func TestFindPath_AvoidsBuildings(t *testing.T) {
	// A building straddling the direct line midway.
	block := &buildings.Building{
		ID: "blocker",
		Footprint: []geo.Coordinate{
			{Lat: 35.6805, Lon: 139.7678},
			{Lat: 35.6805, Lon: 139.7682},
			{Lat: 35.6815, Lon: 139.7682},
			{Lat: 35.6815, Lon: 139.7678},
		},
		HeightMeters: 40,
	}

	finder := pathfind.NewFinder(shade.NewField(nil), []*buildings.Building{block})
	result := finder.FindPath(start, end, pathfind.Options{MaxDetourRatio: detourRatio(1.0)})
	require.NotNil(t, result)

	require.False(t, result.Fallback)
	for _, p := range result.Path[1 : len(result.Path)-1] {
		assert.False(t, block.ContainsPoint(p), "path must not pass through the building at %+v", p)
	}

	// The detour is longer than the direct line.
	assert.Greater(t, result.DistanceMeters, geo.Haversine(start, end))
}

func TestFindPath_PrefersShade(t *testing.T) {
	// A shade band one grid row north of the direct line.
	band := &shadow.Polygon{
		BuildingID: "band",
		Vertices: []geo.Coordinate{
			{Lat: 35.68112, Lon: 139.7668},
			{Lat: 35.68112, Lon: 139.7692},
			{Lat: 35.68152, Lon: 139.7692},
			{Lat: 35.68152, Lon: 139.7668},
		},
		Opacity: 0.55,
	}
	field := shade.NewField([]*shadow.Polygon{band})
	finder := pathfind.NewFinder(field, nil)

	sunny := finder.FindPath(start, end, pathfind.Options{PrioritizeShade: false})
	shaded := finder.FindPath(start, end, pathfind.Options{PrioritizeShade: true})

	require.False(t, sunny.Fallback)
	require.False(t, shaded.Fallback)
	assert.Greater(t, shaded.ShadePercent, sunny.ShadePercent)
	assert.Greater(t, shaded.ShadePercent, 50.0)
}

func TestFindPath_BudgetExhaustionFallsBack(t *testing.T) {
	result := emptyFinder().FindPath(start, end, pathfind.Options{MaxIterations: 1})
	require.NotNil(t, result)

	assert.True(t, result.Fallback)
	assert.Equal(t, start, result.Path[0])
	assert.Equal(t, end, result.Path[len(result.Path)-1])

	// Fallback is the straight-line interpolation.
	direct := geo.Haversine(start, end)
	assert.InDelta(t, direct, result.DistanceMeters, 1.0)
}

func TestFindPath_ZeroDetourRatioStaysTight(t *testing.T) {
	// With no detour allowance at all the result (path or fallback) must not
	// exceed the direct distance by more than the grid discretization
	// tolerance.
	result := emptyFinder().FindPath(start, end, pathfind.Options{MaxDetourRatio: detourRatio(0)})
	require.NotNil(t, result)

	direct := geo.Haversine(start, end)
	assert.LessOrEqual(t, result.DistanceMeters, direct+30)
}

func TestFindPath_ZeroDetourRatioDiffersFromDefault(t *testing.T) {
	// A building straddling the direct line: the only way around it is a
	// detour. An explicit zero ratio must forbid that detour instead of
	// being silently replaced with the default allowance.
	block := &buildings.Building{
		ID: "blocker",
		Footprint: []geo.Coordinate{
			{Lat: 35.6805, Lon: 139.7678},
			{Lat: 35.6805, Lon: 139.7682},
			{Lat: 35.6815, Lon: 139.7682},
			{Lat: 35.6815, Lon: 139.7678},
		},
		HeightMeters: 40,
	}
	finder := pathfind.NewFinder(shade.NewField(nil), []*buildings.Building{block})
	direct := geo.Haversine(start, end)

	tight := finder.FindPath(start, end, pathfind.Options{MaxDetourRatio: detourRatio(0)})
	require.NotNil(t, tight)
	assert.True(t, tight.Fallback)
	assert.InDelta(t, direct, tight.DistanceMeters, 1.0)

	loose := finder.FindPath(start, end, pathfind.Options{})
	require.NotNil(t, loose)
	require.False(t, loose.Fallback)
	assert.Greater(t, loose.DistanceMeters, tight.DistanceMeters)
}

func TestFindPath_DefaultsApplied(t *testing.T) {
	result := emptyFinder().FindPath(start, end, pathfind.Options{})
	require.NotNil(t, result)

	// Default walking speed of 4.8 km/h = 80 m/min.
	expectedMinutes := result.DistanceMeters / 80
	assert.InDelta(t, expectedMinutes, result.EstimatedMinutes, 1e-9)
}
