// Package api provides the HTTP API for ShadeWalk.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/api/handler"
	"github.com/shadewalk/shadewalk/internal/api/middleware"
	"github.com/shadewalk/shadewalk/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Buildings supplies footprints for shadow projection. Required for
	// the routes and shadows endpoints.
	Buildings handler.BuildingSource

	// Directions supplies candidate walking routes for requests that give
	// an origin and destination instead of routes. Optional.
	Directions handler.DirectionsSource

	// Registry exposes external provider health on the status endpoint.
	Registry *resilience.Registry

	// Readiness checkers run on /v1/ops/ready, keyed by dependency name.
	Readiness map[string]handler.ReadinessChecker
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "shadewalk-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Readiness)
	routeHandler := handler.NewRouteHandler(cfg.Buildings, cfg.Directions, cfg.Logger)
	shadowHandler := handler.NewShadowHandler(cfg.Buildings, cfg.Logger)
	sunHandler := handler.NewSunHandler()
	uvHandler := handler.NewUVHandler()

	// Rate limits per endpoint category
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Route endpoints - expensive compute, strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/routes:analyze", routeHandler.Analyze)
			r.Post("/routes:shade-path", routeHandler.ShadePath)
			r.Post("/routes:rank", routeHandler.Rank)
		})

		// Query endpoints - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/sun", sunHandler.GetSun)
			r.Get("/shadows", shadowHandler.GetShadows)
			r.Get("/uv/exposure", uvHandler.GetExposure)
		})
	})

	return r
}
