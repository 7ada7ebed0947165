// Package worker provides background shadow precompute jobs for ShadeWalk.
package worker

import (
	"time"

	"github.com/shadewalk/shadewalk/pkg/geo"
)

// SnapshotTarget represents a geographic area to precompute shadows for.
type SnapshotTarget struct {
	// Name is the stable area identifier used as the snapshot key.
	Name string

	// Bounds is the area to fetch buildings for and project shadows over.
	Bounds geo.BoundingBox

	// Priority determines compute order (lower = higher priority).
	Priority int
}

// PrecomputeConfig holds configuration for the shadow precompute job.
type PrecomputeConfig struct {
	// Targets are the areas to precompute.
	// If empty, uses DefaultPrecomputeTargets.
	Targets []SnapshotTarget

	// Concurrency is the number of areas processed in parallel.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each area.
	// Default: 30 seconds
	Timeout time.Duration

	// LookaheadBuckets is how many 10-minute buckets to compute per area,
	// starting from the current bucket. Default: 1 (current bucket only).
	LookaheadBuckets int

	// GridResolution is the sampling grid size for the area shade percentage.
	// Default: 20
	GridResolution int

	// Retention is how long computed snapshots are kept before Prune
	// removes them. Default: 24 hours
	Retention time.Duration
}

// DefaultPrecomputeConfig returns the default precompute configuration.
func DefaultPrecomputeConfig() PrecomputeConfig {
	return PrecomputeConfig{
		Targets:          DefaultPrecomputeTargets(),
		Concurrency:      3,
		Timeout:          30 * time.Second,
		LookaheadBuckets: 1,
		GridResolution:   20,
		Retention:        24 * time.Hour,
	}
}

// DefaultPrecomputeTargets returns the default precompute targets for Tokyo.
// Focuses on dense station districts where pedestrians most need shade.
func DefaultPrecomputeTargets() []SnapshotTarget {
	return []SnapshotTarget{
		{
			Name:     "tokyo-marunouchi",
			Priority: 1,
			// Tokyo Station and the Marunouchi office district.
			Bounds: geo.BoundingBox{MinLat: 35.675, MaxLat: 35.687, MinLon: 139.760, MaxLon: 139.774},
		},
		{
			Name:     "shinjuku",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 35.683, MaxLat: 35.696, MinLon: 139.694, MaxLon: 139.708},
		},
		{
			Name:     "shibuya",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 35.652, MaxLat: 35.664, MinLon: 139.695, MaxLon: 139.709},
		},
		{
			Name:     "ginza",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 35.665, MaxLat: 35.678, MinLon: 139.757, MaxLon: 139.771},
		},
		{
			Name:     "roppongi",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 35.656, MaxLat: 35.669, MinLon: 139.724, MaxLon: 139.738},
		},
		{
			Name:     "ueno",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 35.707, MaxLat: 35.720, MinLon: 139.770, MaxLon: 139.784},
		},
		{
			Name:     "ikebukuro",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 35.723, MaxLat: 35.736, MinLon: 139.704, MaxLon: 139.718},
		},
		{
			Name:     "shinagawa",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 35.622, MaxLat: 35.635, MinLon: 139.732, MaxLon: 139.746},
		},
		{
			Name:     "asakusa",
			Priority: 3,
			Bounds:   geo.BoundingBox{MinLat: 35.705, MaxLat: 35.718, MinLon: 139.790, MaxLon: 139.804},
		},
		{
			Name:     "akihabara",
			Priority: 3,
			Bounds:   geo.BoundingBox{MinLat: 35.692, MaxLat: 35.705, MinLon: 139.767, MaxLon: 139.780},
		},
	}
}

// TotalSnapshots returns the number of snapshots one run will compute.
func (c PrecomputeConfig) TotalSnapshots() int {
	buckets := c.LookaheadBuckets
	if buckets < 1 {
		buckets = 1
	}
	return len(c.Targets) * buckets
}
