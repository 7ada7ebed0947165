package buildings

import (
	"context"
	"time"

	"github.com/shadewalk/shadewalk/pkg/geo"
)

// Repository persists building snapshots so workers can precompute shadows
// and the API can serve areas the live provider cannot reach.
type Repository interface {
	// SaveSnapshot stores a snapshot of an area.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// LatestSnapshot returns the most recent stored snapshot whose bounds
	// contain the requested box and whose age does not exceed maxAge.
	// Returns ErrNoBuildingsInArea when nothing qualifies.
	LatestSnapshot(ctx context.Context, bounds geo.BoundingBox, maxAge time.Duration) (*Snapshot, error)

	// DeleteOlderThan removes snapshots fetched before the cutoff and
	// returns the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
