package buildings

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/pkg/geo"
)

// Provider fetches building footprints for an area from an external source.
type Provider interface {
	// FetchBuildings retrieves the buildings inside the bounding box.
	FetchBuildings(ctx context.Context, bounds geo.BoundingBox) (*Snapshot, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// CacheMetrics counts snapshot cache hits and misses per operation.
// Satisfied by middleware.ProviderMetrics.
type CacheMetrics interface {
	RecordCacheHit(operation string)
	RecordCacheMiss(operation string)
}

// fetchOperation labels cache metrics for footprint fetches.
const fetchOperation = "fetch-buildings"

// ServiceConfig holds configuration for the building data service.
type ServiceConfig struct {
	// Provider is the building footprint source.
	Provider Provider

	// Repository persists snapshots for the worker and for provider
	// outages (optional).
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics counts cache hits and misses (optional).
	Metrics CacheMetrics

	// CacheTTL is how long to cache building data (default: 6 hours).
	// Buildings change on construction timescales, not weather timescales.
	CacheTTL time.Duration

	// CacheGridSize quantizes requested bounds to grid cells in degrees
	// (default: 0.005 ~ 550m). Overlapping requests share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors
	// (default: 48 hours).
	StaleIfErrorTTL time.Duration

	// RepositoryMaxAge bounds how old a persisted snapshot may be when used
	// as a provider fallback (default: 7 days).
	RepositoryMaxAge time.Duration
}

// Service provides building footprints with caching and persistence.
type Service struct {
	provider         Provider
	repository       Repository
	logger           zerolog.Logger
	metrics          CacheMetrics
	cacheTTL         time.Duration
	cacheGridSize    float64
	staleIfErrorTTL  time.Duration
	repositoryMaxAge time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedSnapshot
}

type cachedSnapshot struct {
	snapshot  *Snapshot
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new building data service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 6 * time.Hour
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.005
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 48 * time.Hour
	}

	repositoryMaxAge := cfg.RepositoryMaxAge
	if repositoryMaxAge == 0 {
		repositoryMaxAge = 7 * 24 * time.Hour
	}

	return &Service{
		provider:         cfg.Provider,
		repository:       cfg.Repository,
		logger:           cfg.Logger,
		metrics:          cfg.Metrics,
		cacheTTL:         cacheTTL,
		cacheGridSize:    cacheGridSize,
		staleIfErrorTTL:  staleIfErrorTTL,
		repositoryMaxAge: repositoryMaxAge,
		cache:            make(map[string]*cachedSnapshot),
	}
}

// GetBuildings returns the buildings inside the bounding box.
// Uses cached data if available and not expired; on provider failure falls
// back to stale cache entries, then to the persisted repository.
func (s *Service) GetBuildings(ctx context.Context, bounds geo.BoundingBox) (*Snapshot, error) {
	if bounds.MinLat > bounds.MaxLat || bounds.MinLon > bounds.MaxLon {
		return nil, ErrInvalidBounds
	}

	quantized := s.quantize(bounds)
	cacheKey := s.cacheKey(quantized)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for buildings")
		if s.metrics != nil {
			s.metrics.RecordCacheHit(fetchOperation)
		}
		return cached.snapshot, nil
	}
	s.mu.RUnlock()

	if s.metrics != nil {
		s.metrics.RecordCacheMiss(fetchOperation)
	}
	return s.fetchBuildings(ctx, quantized, cacheKey)
}

// fetchBuildings fetches from the provider and updates cache and repository.
func (s *Service) fetchBuildings(ctx context.Context, bounds geo.BoundingBox, cacheKey string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.snapshot, nil
	}

	s.logger.Debug().
		Float64("min_lat", bounds.MinLat).
		Float64("max_lat", bounds.MaxLat).
		Float64("min_lon", bounds.MinLon).
		Float64("max_lon", bounds.MaxLon).
		Str("provider", s.provider.Name()).
		Msg("fetching buildings from provider")

	snapshot, err := s.provider.FetchBuildings(ctx, bounds)
	if err != nil {
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch buildings")

		// Stale-if-error: footprints barely change, old data is fine.
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale building data due to provider error")
				return cached.snapshot, nil
			}
		}

		// Last resort: a persisted snapshot from an earlier worker run.
		if s.repository != nil {
			stored, repoErr := s.repository.LatestSnapshot(ctx, bounds, s.repositoryMaxAge)
			if repoErr == nil {
				s.logger.Warn().
					Time("fetched_at", stored.FetchedAt).
					Msg("serving persisted building snapshot due to provider error")
				return stored, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedSnapshot{
		snapshot:  snapshot,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	if s.repository != nil {
		if err := s.repository.SaveSnapshot(ctx, snapshot); err != nil {
			// Persistence is best-effort; the caller still gets fresh data.
			s.logger.Warn().Err(err).Msg("failed to persist building snapshot")
		}
	}

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Int("building_count", len(snapshot.Buildings)).
		Msg("cached building snapshot")

	return snapshot, nil
}

// quantize expands the bounds outward to the cache grid so nearby requests
// resolve to the same area.
func (s *Service) quantize(bounds geo.BoundingBox) geo.BoundingBox {
	g := s.cacheGridSize
	return geo.BoundingBox{
		MinLat: math.Floor(bounds.MinLat/g) * g,
		MaxLat: math.Ceil(bounds.MaxLat/g) * g,
		MinLon: math.Floor(bounds.MinLon/g) * g,
		MaxLon: math.Ceil(bounds.MaxLon/g) * g,
	}
}

func (s *Service) cacheKey(bounds geo.BoundingBox) string {
	return fmt.Sprintf("%.3f,%.3f:%.3f,%.3f",
		bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon)
}

// InvalidateCache clears all cached building data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedSnapshot)
}

// CacheSize returns the number of cached areas.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
