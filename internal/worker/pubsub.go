package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	precomputeJob    *PrecomputeJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	PrecomputeJob    *PrecomputeJob
	Logger           zerolog.Logger
}

// JobMessage represents a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Areas restricts a precompute job to the named target areas.
	// Empty means all configured targets.
	Areas []string `json:"areas,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		precomputeJob:    cfg.PrecomputeJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch jobMsg.JobType {
	case "shadow_precompute":
		err = h.handlePrecompute(ctx, jobMsg)
	case "prune":
		_, err = h.precomputeJob.Prune(ctx)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handlePrecompute(ctx context.Context, msg JobMessage) error {
	job := h.precomputeJob
	if len(msg.Areas) > 0 {
		job = h.jobForAreas(msg.Areas)
	}

	result := job.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("total_snapshots", result.TotalSnapshots).
		Msg("shadow precompute completed")

	// Consider it successful if more than half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many snapshot failures: %d/%d", result.Failed, result.TotalSnapshots)
	}

	return nil
}

// jobForAreas creates a job restricted to the named target areas.
func (h *PubSubHandler) jobForAreas(areas []string) *PrecomputeJob {
	wanted := make(map[string]bool, len(areas))
	for _, a := range areas {
		wanted[a] = true
	}

	config := h.precomputeJob.config
	var targets []SnapshotTarget
	for _, t := range config.Targets {
		if wanted[t.Name] {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		h.logger.Warn().Strs("areas", areas).Msg("no configured targets match requested areas")
		return h.precomputeJob
	}
	config.Targets = targets

	return NewPrecomputeJob(PrecomputeJobConfig{
		Config:         config,
		Logger:         h.logger,
		BuildingSource: h.precomputeJob.buildingSource,
		Repository:     h.precomputeJob.repository,
	})
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Compute a single small area to verify provider and database access.
	healthCheckConfig := PrecomputeConfig{
		Targets: []SnapshotTarget{
			{
				Name:     "health-check",
				Priority: 1,
				Bounds:   DefaultPrecomputeTargets()[0].Bounds,
			},
		},
		Concurrency:      1,
		Timeout:          10 * time.Second,
		LookaheadBuckets: 1,
	}

	healthCheckJob := NewPrecomputeJob(PrecomputeJobConfig{
		Config:         healthCheckConfig,
		Logger:         h.logger,
		BuildingSource: h.precomputeJob.buildingSource,
		Repository:     h.precomputeJob.repository,
	})

	result := healthCheckJob.Run(ctx)

	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
