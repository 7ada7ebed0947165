package buildings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shadewalk/shadewalk/pkg/geo"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Snapshots are stored one row per area with the footprints as JSONB. The
// bounds live in plain columns so containment queries stay index-friendly
// without PostGIS.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL building snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// storedBuilding is the JSONB shape of one building in a snapshot row.
type storedBuilding struct {
	ID           string           `json:"id"`
	Footprint    []geo.Coordinate `json:"footprint"`
	HeightMeters float64          `json:"height_m"`
}

// SaveSnapshot stores a snapshot of an area.
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	stored := make([]storedBuilding, 0, len(snapshot.Buildings))
	for _, b := range snapshot.Buildings {
		stored = append(stored, storedBuilding{
			ID:           b.ID,
			Footprint:    b.Footprint,
			HeightMeters: b.HeightMeters,
		})
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal snapshot buildings: %w", err)
	}

	query := `
		INSERT INTO building_snapshots (
			id, min_lat, max_lat, min_lon, max_lon,
			source, building_count, buildings, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		uuid.NewString(),
		snapshot.Bounds.MinLat,
		snapshot.Bounds.MaxLat,
		snapshot.Bounds.MinLon,
		snapshot.Bounds.MaxLon,
		snapshot.Source,
		len(snapshot.Buildings),
		payload,
		snapshot.FetchedAt,
	)
	return err
}

// LatestSnapshot returns the most recent stored snapshot containing the box.
func (r *PostgresRepository) LatestSnapshot(ctx context.Context, bounds geo.BoundingBox, maxAge time.Duration) (*Snapshot, error) {
	query := `
		SELECT min_lat, max_lat, min_lon, max_lon, source, buildings, fetched_at
		FROM building_snapshots
		WHERE min_lat <= $1 AND max_lat >= $2
		  AND min_lon <= $3 AND max_lon >= $4
		  AND fetched_at >= $5
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var (
		snapshot Snapshot
		payload  []byte
	)

	err := r.pool.QueryRow(ctx, query,
		bounds.MinLat, bounds.MaxLat,
		bounds.MinLon, bounds.MaxLon,
		time.Now().Add(-maxAge),
	).Scan(
		&snapshot.Bounds.MinLat,
		&snapshot.Bounds.MaxLat,
		&snapshot.Bounds.MinLon,
		&snapshot.Bounds.MaxLon,
		&snapshot.Source,
		&payload,
		&snapshot.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoBuildingsInArea
		}
		return nil, err
	}

	var stored []storedBuilding
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot buildings: %w", err)
	}

	snapshot.Buildings = make([]*Building, 0, len(stored))
	for _, s := range stored {
		snapshot.Buildings = append(snapshot.Buildings, &Building{
			ID:           s.ID,
			Footprint:    s.Footprint,
			HeightMeters: s.HeightMeters,
		})
	}

	return &snapshot, nil
}

// DeleteOlderThan removes snapshots fetched before the cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM building_snapshots WHERE fetched_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
