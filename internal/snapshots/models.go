// Package snapshots persists precomputed shadow state so the API can answer
// shade queries for popular areas without reprojecting every request.
package snapshots

import (
	"context"
	"errors"
	"time"

	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

// Repository errors.
var (
	ErrSnapshotNotFound = errors.New("shadow snapshot not found")
)

// BucketDuration is the time resolution of precomputed shadows. The sun
// moves about 2.5 degrees in ten minutes, which shifts a 30 m building's
// shadow by only a few meters.
const BucketDuration = 10 * time.Minute

// Bucket truncates a time to its snapshot bucket in UTC.
func Bucket(t time.Time) time.Time {
	return t.UTC().Truncate(BucketDuration)
}

// ShadowSnapshot is the precomputed shadow state of one target area for one
// time bucket.
type ShadowSnapshot struct {
	ID     string
	Area   string
	Bounds geo.BoundingBox

	// Bucket is the start of the 10-minute window this snapshot covers.
	Bucket time.Time

	Shadows       []*shadow.Polygon
	BuildingCount int

	// ShadePercent is the region shade percentage at computation time.
	ShadePercent float64

	// SunAltitudeDeg and SunAzimuthDeg record the solar position the
	// shadows were projected from.
	SunAltitudeDeg float64
	SunAzimuthDeg  float64

	ComputedAt time.Time
}

// Repository defines persistence for precomputed shadow snapshots.
type Repository interface {
	// Save stores a snapshot, replacing any existing snapshot for the same
	// area and bucket.
	Save(ctx context.Context, snapshot *ShadowSnapshot) error

	// Get returns the snapshot for an area and time bucket.
	// Returns ErrSnapshotNotFound when none exists.
	Get(ctx context.Context, area string, bucket time.Time) (*ShadowSnapshot, error)

	// Latest returns the most recently computed snapshot for an area.
	Latest(ctx context.Context, area string) (*ShadowSnapshot, error)

	// DeleteOlderThan removes snapshots computed before the cutoff and
	// returns the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
