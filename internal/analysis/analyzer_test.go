package analysis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadewalk/shadewalk/internal/analysis"
	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

var (
	// Midnight and noon in Tokyo, expressed in UTC.
	tokyoMidnight = time.Date(2026, 1, 9, 15, 0, 0, 0, time.UTC)
	tokyoNoon     = time.Date(2026, 6, 21, 3, 0, 0, 0, time.UTC)
)

func stationBuilding() *buildings.Building {
	return &buildings.Building{
		ID: "station-block",
		Footprint: []geo.Coordinate{
			{Lat: 35.6810, Lon: 139.7670},
			{Lat: 35.6810, Lon: 139.7674},
			{Lat: 35.6814, Lon: 139.7674},
			{Lat: 35.6814, Lon: 139.7670},
		},
		HeightMeters: 30,
	}
}

func TestAnalyze_NightIsFullyShaded(t *testing.T) {
	a := analysis.NewAnalyzer()
	route := []geo.Coordinate{
		{Lat: 35.6812, Lon: 139.7668},
		{Lat: 35.6812, Lon: 139.7700},
	}

	result := a.Analyze("night-walk", route, nil, tokyoMidnight)
	require.NotNil(t, result)

	assert.InDelta(t, 100.0, result.ShadePercentage, 1e-9)
	assert.Zero(t, result.UVExposure)
	assert.True(t, result.IsRecommended)
	assert.Greater(t, result.DistanceMeters, 0.0)
	assert.InDelta(t, result.DistanceMeters, result.Route.TotalMeters(), 1e-9)
}

func TestAnalyze_NoonWithoutBuildings(t *testing.T) {
	a := analysis.NewAnalyzer()
	route := []geo.Coordinate{
		{Lat: 35.6812, Lon: 139.7668},
		{Lat: 35.6812, Lon: 139.7700},
	}

	result := a.Analyze("sunny-walk", route, nil, tokyoNoon)

	assert.Zero(t, result.ShadePercentage)
	assert.InDelta(t, 100.0, result.UVExposure, 1e-9)
	assert.False(t, result.IsRecommended)
}

func TestAnalyze_MixedSunAndShade(t *testing.T) {
	a := analysis.NewAnalyzer()

	// First leg crosses the building block (midpoint inside its shadow),
	// second leg runs well clear of it.
	route := []geo.Coordinate{
		{Lat: 35.6812, Lon: 139.7668},
		{Lat: 35.6812, Lon: 139.7676},
		{Lat: 35.6812, Lon: 139.7800},
	}

	result := a.Analyze("mixed", route, []*buildings.Building{stationBuilding()}, tokyoNoon)

	assert.Greater(t, result.ShadePercentage, 0.0)
	assert.Less(t, result.ShadePercentage, 50.0)
	assert.False(t, result.IsRecommended)

	// Shade and UV exposure always partition the full route.
	assert.InDelta(t, 100.0, result.ShadePercentage+result.UVExposure, 1e-9)

	require.Len(t, result.Route.Segments, 2)
	assert.Greater(t, result.Route.Segments[0].ShadeMeters, 0.0)
	assert.Zero(t, result.Route.Segments[0].SunMeters)
	assert.Greater(t, result.Route.Segments[1].SunMeters, 0.0)
}

func TestAnalyze_DegeneratePolyline(t *testing.T) {
	a := analysis.NewAnalyzer()

	result := a.Analyze("empty", nil, nil, tokyoNoon)
	assert.Zero(t, result.ShadePercentage)
	assert.InDelta(t, 100.0, result.UVExposure, 1e-9)
	assert.Zero(t, result.DistanceMeters)

	single := a.Analyze("point", []geo.Coordinate{{Lat: 35.68, Lon: 139.76}}, nil, tokyoNoon)
	assert.Zero(t, single.DistanceMeters)
}

func TestCompareRoutes(t *testing.T) {
	a := analysis.NewAnalyzer()

	analyses := []*analysis.RouteAnalysis{
		{ShadePercentage: 40, DistanceMeters: 500},
		{ShadePercentage: 60, DistanceMeters: 800},
		{ShadePercentage: 60, DistanceMeters: 700},
	}

	// Highest shade wins, ties go to the shorter route.
	assert.Equal(t, 2, a.CompareRoutes(analyses))

	assert.Equal(t, -1, a.CompareRoutes(nil))
	assert.Equal(t, -1, a.CompareRoutes([]*analysis.RouteAnalysis{nil, nil}))
}

func TestRouteScore(t *testing.T) {
	a := analysis.NewAnalyzer()

	// 0.7*80 + 0.3*(100 - 1000/2000*100) = 56 + 15
	score := a.RouteScore(&analysis.RouteAnalysis{ShadePercentage: 80, DistanceMeters: 1000})
	assert.InDelta(t, 71.0, score, 1e-9)

	// Past 2 km the length bonus bottoms out at zero.
	long := a.RouteScore(&analysis.RouteAnalysis{ShadePercentage: 80, DistanceMeters: 3000})
	assert.InDelta(t, 56.0, long, 1e-9)
}
