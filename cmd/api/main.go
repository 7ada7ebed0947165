// Package main provides the entrypoint for the ShadeWalk API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/api"
	"github.com/shadewalk/shadewalk/internal/api/handler"
	"github.com/shadewalk/shadewalk/internal/api/middleware"
	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/buildings/overpass"
	"github.com/shadewalk/shadewalk/internal/database"
	"github.com/shadewalk/shadewalk/internal/provider/resilience"
	"github.com/shadewalk/shadewalk/internal/routing"
	"github.com/shadewalk/shadewalk/internal/routing/openrouteservice"
	"github.com/shadewalk/shadewalk/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "shadewalk-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting ShadeWalk API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider registry tracks circuit breaker state for the status endpoint
	registry := resilience.GlobalRegistry

	// Initialize the Overpass building footprint provider
	overpassClient := overpass.NewClient(overpass.ClientConfig{
		BaseURL:  os.Getenv("OVERPASS_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})

	overpassMetrics, err := middleware.NewProviderMetrics(overpass.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	// Building service: in-memory cache over Overpass, with persisted
	// snapshots as the outage fallback
	buildingService := buildings.NewService(buildings.ServiceConfig{
		Provider:   overpassClient,
		Repository: buildings.NewPostgresRepository(pool),
		Logger:     log,
		Metrics:    overpassMetrics,
	})
	log.Info().Msg("building service initialized")

	routerCfg := api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Buildings:   buildingService,
		Registry:    registry,
		Readiness: map[string]handler.ReadinessChecker{
			"postgres": pool.Ping,
		},
	}

	// Directions provider supplies candidate routes for requests that give
	// only an origin and destination
	if orsAPIKey := os.Getenv("ORS_API_KEY"); orsAPIKey != "" {
		orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   orsAPIKey,
			BaseURL:  os.Getenv("ORS_BASE_URL"),
			Registry: registry,
			Logger:   log,
		})
		routerCfg.Directions = routing.NewService(routing.ServiceConfig{
			Provider: orsClient,
			Logger:   log,
		})
		log.Info().Msg("directions service initialized")
	} else {
		log.Warn().Msg("ORS_API_KEY not set - clients must supply candidate routes")
	}

	// Create router with configuration
	router := api.NewRouter(routerCfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
