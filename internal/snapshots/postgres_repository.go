package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL shadow snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save stores a snapshot, replacing any existing one for the area and bucket.
func (r *PostgresRepository) Save(ctx context.Context, snapshot *ShadowSnapshot) error {
	payload, err := json.Marshal(snapshot.Shadows)
	if err != nil {
		return fmt.Errorf("marshal shadow polygons: %w", err)
	}

	id := snapshot.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO shadow_snapshots (
			id, area, bucket,
			min_lat, max_lat, min_lon, max_lon,
			shadows, building_count, shade_percent,
			sun_altitude_deg, sun_azimuth_deg, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (area, bucket) DO UPDATE SET
			shadows = EXCLUDED.shadows,
			building_count = EXCLUDED.building_count,
			shade_percent = EXCLUDED.shade_percent,
			sun_altitude_deg = EXCLUDED.sun_altitude_deg,
			sun_azimuth_deg = EXCLUDED.sun_azimuth_deg,
			computed_at = EXCLUDED.computed_at
	`

	_, err = r.pool.Exec(ctx, query,
		id,
		snapshot.Area,
		snapshot.Bucket,
		snapshot.Bounds.MinLat,
		snapshot.Bounds.MaxLat,
		snapshot.Bounds.MinLon,
		snapshot.Bounds.MaxLon,
		payload,
		snapshot.BuildingCount,
		snapshot.ShadePercent,
		snapshot.SunAltitudeDeg,
		snapshot.SunAzimuthDeg,
		snapshot.ComputedAt,
	)
	return err
}

// Get returns the snapshot for an area and time bucket.
func (r *PostgresRepository) Get(ctx context.Context, area string, bucket time.Time) (*ShadowSnapshot, error) {
	query := `
		SELECT
			id, area, bucket,
			min_lat, max_lat, min_lon, max_lon,
			shadows, building_count, shade_percent,
			sun_altitude_deg, sun_azimuth_deg, computed_at
		FROM shadow_snapshots
		WHERE area = $1 AND bucket = $2
	`

	return r.scanSnapshot(ctx, query, area, bucket)
}

// Latest returns the most recently computed snapshot for an area.
func (r *PostgresRepository) Latest(ctx context.Context, area string) (*ShadowSnapshot, error) {
	query := `
		SELECT
			id, area, bucket,
			min_lat, max_lat, min_lon, max_lon,
			shadows, building_count, shade_percent,
			sun_altitude_deg, sun_azimuth_deg, computed_at
		FROM shadow_snapshots
		WHERE area = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`

	return r.scanSnapshot(ctx, query, area)
}

// scanSnapshot scans one snapshot from a query result.
func (r *PostgresRepository) scanSnapshot(ctx context.Context, query string, args ...interface{}) (*ShadowSnapshot, error) {
	var (
		snapshot ShadowSnapshot
		payload  []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&snapshot.ID,
		&snapshot.Area,
		&snapshot.Bucket,
		&snapshot.Bounds.MinLat,
		&snapshot.Bounds.MaxLat,
		&snapshot.Bounds.MinLon,
		&snapshot.Bounds.MaxLon,
		&payload,
		&snapshot.BuildingCount,
		&snapshot.ShadePercent,
		&snapshot.SunAltitudeDeg,
		&snapshot.SunAzimuthDeg,
		&snapshot.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &snapshot.Shadows); err != nil {
		return nil, fmt.Errorf("unmarshal shadow polygons: %w", err)
	}

	return &snapshot, nil
}

// DeleteOlderThan removes snapshots computed before the cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM shadow_snapshots WHERE computed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
