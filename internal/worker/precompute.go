package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/shade"
	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/internal/snapshots"
	"github.com/shadewalk/shadewalk/internal/solar"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

// BuildingSource provides building footprints for an area.
// *buildings.Service satisfies this.
type BuildingSource interface {
	GetBuildings(ctx context.Context, bounds geo.BoundingBox) (*buildings.Snapshot, error)
}

// PrecomputeJob computes and persists shadow snapshots for configured areas.
type PrecomputeJob struct {
	config PrecomputeConfig
	logger zerolog.Logger

	buildingSource BuildingSource
	repository     snapshots.Repository

	metrics *PrecomputeMetrics
}

// PrecomputeMetrics tracks precompute job statistics.
type PrecomputeMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	SnapshotsComputed   int64
	SnapshotsFailed     int64
	NightBuckets        int64
	BuildingsProjected  int64
	LastRunAt           time.Time
	LastRunDuration     time.Duration
	TotalDuration       time.Duration
}

// PrecomputeJobConfig holds configuration for creating a PrecomputeJob.
type PrecomputeJobConfig struct {
	Config         PrecomputeConfig
	Logger         zerolog.Logger
	BuildingSource BuildingSource
	Repository     snapshots.Repository
}

// NewPrecomputeJob creates a new shadow precompute job processor.
func NewPrecomputeJob(cfg PrecomputeJobConfig) *PrecomputeJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultPrecomputeConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.LookaheadBuckets < 1 {
		config.LookaheadBuckets = 1
	}
	if config.GridResolution <= 0 {
		config.GridResolution = 20
	}
	if config.Retention <= 0 {
		config.Retention = 24 * time.Hour
	}

	return &PrecomputeJob{
		config:         config,
		logger:         cfg.Logger,
		buildingSource: cfg.BuildingSource,
		repository:     cfg.Repository,
		metrics:        &PrecomputeMetrics{},
	}
}

// PrecomputeResult contains the result of a precompute run.
type PrecomputeResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalSnapshots int
	Successful     int
	Failed         int
	Errors         []PrecomputeError
}

// PrecomputeError represents an error while computing one snapshot.
type PrecomputeError struct {
	Area   string
	Bucket time.Time
	Error  string
}

// Run computes snapshots for all configured targets at the current time.
func (j *PrecomputeJob) Run(ctx context.Context) *PrecomputeResult {
	return j.RunAt(ctx, time.Now())
}

// RunAt computes snapshots for all configured targets, with time buckets
// starting at the bucket containing base.
func (j *PrecomputeJob) RunAt(ctx context.Context, base time.Time) *PrecomputeResult {
	startTime := time.Now()
	result := &PrecomputeResult{
		StartTime:      startTime,
		TotalSnapshots: j.config.TotalSnapshots(),
	}

	j.logger.Info().
		Int("targets", len(j.config.Targets)).
		Int("buckets", j.config.LookaheadBuckets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting shadow precompute job")

	// One work item per target and bucket.
	firstBucket := snapshots.Bucket(base)
	workChan := make(chan snapshotWork, result.TotalSnapshots)
	resultsChan := make(chan snapshotResult, result.TotalSnapshots)

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.snapshotWorker(ctx, workChan, resultsChan)
		}()
	}

	for _, target := range j.config.Targets {
		for b := 0; b < j.config.LookaheadBuckets; b++ {
			workChan <- snapshotWork{
				target: target,
				bucket: firstBucket.Add(time.Duration(b) * snapshots.BucketDuration),
			}
		}
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for sr := range resultsChan {
		if sr.err == nil {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, PrecomputeError{
				Area:   sr.area,
				Bucket: sr.bucket,
				Error:  sr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("shadow precompute job completed")

	return result
}

type snapshotWork struct {
	target SnapshotTarget
	bucket time.Time
}

type snapshotResult struct {
	area   string
	bucket time.Time
	err    error
}

func (j *PrecomputeJob) snapshotWorker(ctx context.Context, work <-chan snapshotWork, results chan<- snapshotResult) {
	for w := range work {
		select {
		case <-ctx.Done():
			results <- snapshotResult{area: w.target.Name, bucket: w.bucket, err: ctx.Err()}
		default:
			err := j.computeSnapshot(ctx, w.target, w.bucket)
			results <- snapshotResult{area: w.target.Name, bucket: w.bucket, err: err}
		}
	}
}

// computeSnapshot fetches footprints, projects shadows for one time bucket
// and persists the result.
func (j *PrecomputeJob) computeSnapshot(ctx context.Context, target SnapshotTarget, bucket time.Time) error {
	snapCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	buildingSnap, err := j.buildingSource.GetBuildings(snapCtx, target.Bounds)
	if err != nil {
		j.logger.Error().Err(err).Str("area", target.Name).Msg("building fetch failed")
		return err
	}

	center := target.Bounds.Center()
	sun := solar.PositionAt(bucket, center.Lat, center.Lon)

	var (
		polys        []*shadow.Polygon
		shadePercent float64
	)
	if sun.AboveHorizon() {
		polys = shadow.ProjectAll(buildingSnap.Buildings, sun, center.Lat)
		field := shade.NewField(polys)
		shadePercent = field.RegionShadePercent(target.Bounds, j.config.GridResolution)
	} else {
		// No direct sun means no building shadows to store. The whole
		// area counts as shaded for exposure purposes.
		shadePercent = 100
		j.metrics.addNightBucket()
	}

	record := &snapshots.ShadowSnapshot{
		Area:           target.Name,
		Bounds:         target.Bounds,
		Bucket:         bucket,
		Shadows:        polys,
		BuildingCount:  len(buildingSnap.Buildings),
		ShadePercent:   shadePercent,
		SunAltitudeDeg: sun.AltitudeDeg,
		SunAzimuthDeg:  sun.AzimuthDeg,
		ComputedAt:     time.Now(),
	}

	if err := j.repository.Save(snapCtx, record); err != nil {
		j.logger.Error().Err(err).Str("area", target.Name).Msg("snapshot save failed")
		return err
	}

	j.metrics.addProjected(int64(len(polys)))

	j.logger.Debug().
		Str("area", target.Name).
		Time("bucket", bucket).
		Int("buildings", record.BuildingCount).
		Float64("shade_percent", shadePercent).
		Msg("snapshot computed")

	return nil
}

// Prune deletes snapshots older than the configured retention.
func (j *PrecomputeJob) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-j.config.Retention)

	deleted, err := j.repository.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error().Err(err).Msg("snapshot prune failed")
		return 0, err
	}

	j.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("pruned expired snapshots")
	return deleted, nil
}

func (m *PrecomputeMetrics) addNightBucket() {
	m.mu.Lock()
	m.NightBuckets++
	m.mu.Unlock()
}

func (m *PrecomputeMetrics) addProjected(n int64) {
	m.mu.Lock()
	m.BuildingsProjected += n
	m.mu.Unlock()
}

func (j *PrecomputeJob) updateMetrics(result *PrecomputeResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SnapshotsComputed += int64(result.Successful)
	j.metrics.SnapshotsFailed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *PrecomputeJob) GetMetrics() PrecomputeMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return PrecomputeMetrics{
		TotalRuns:          j.metrics.TotalRuns,
		SnapshotsComputed:  j.metrics.SnapshotsComputed,
		SnapshotsFailed:    j.metrics.SnapshotsFailed,
		NightBuckets:       j.metrics.NightBuckets,
		BuildingsProjected: j.metrics.BuildingsProjected,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *PrecomputeJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":          m.TotalRuns,
		"snapshots_computed":  m.SnapshotsComputed,
		"snapshots_failed":    m.SnapshotsFailed,
		"night_buckets":       m.NightBuckets,
		"buildings_projected": m.BuildingsProjected,
		"last_run_at":         m.LastRunAt,
		"last_run_duration":   m.LastRunDuration.String(),
		"total_duration":      m.TotalDuration.String(),
	}
}
