// Package main provides the entrypoint for the ShadeWalk shadow precompute
// worker. It runs precompute jobs on a fixed schedule and, when a Pub/Sub
// subscription is configured, on demand via job messages.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/buildings/overpass"
	"github.com/shadewalk/shadewalk/internal/database"
	"github.com/shadewalk/shadewalk/internal/provider/resilience"
	"github.com/shadewalk/shadewalk/internal/snapshots"
	"github.com/shadewalk/shadewalk/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "shadewalk-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting ShadeWalk worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Building footprints come from Overpass, persisted for API fallback
	overpassClient := overpass.NewClient(overpass.ClientConfig{
		BaseURL:  os.Getenv("OVERPASS_BASE_URL"),
		Registry: resilience.GlobalRegistry,
		Logger:   log,
	})
	buildingService := buildings.NewService(buildings.ServiceConfig{
		Provider:   overpassClient,
		Repository: buildings.NewPostgresRepository(pool),
		Logger:     log,
	})

	precomputeJob := worker.NewPrecomputeJob(worker.PrecomputeJobConfig{
		Config:         worker.DefaultPrecomputeConfig(),
		Logger:         log,
		BuildingSource: buildingService,
		Repository:     snapshots.NewPostgresRepository(pool),
	})

	// Health and metrics endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"metrics": precomputeJob.MetricsSnapshot(),
		}); err != nil {
			log.Error().Err(err).Msg("failed to write health response")
		}
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// When a subscription is configured, jobs arrive as Pub/Sub messages.
	// Otherwise the worker runs on the snapshot bucket schedule.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			PrecomputeJob:    precomputeJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := pubsubHandler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub handler")
			}
		}()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().
			Dur("interval", snapshots.BucketDuration).
			Msg("no pubsub subscription configured, running on schedule")

		go func() {
			runOnce := func() {
				result := precomputeJob.Run(ctx)
				log.Info().
					Dur("duration", result.Duration).
					Int("successful", result.Successful).
					Int("failed", result.Failed).
					Msg("scheduled precompute completed")

				if _, err := precomputeJob.Prune(ctx); err != nil {
					log.Error().Err(err).Msg("snapshot prune failed")
				}
			}

			runOnce()
			ticker := time.NewTicker(snapshots.BucketDuration)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					runOnce()
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
