package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/veridoc/idverify-worker/internal/errors"
	"github.com/veridoc/idverify-worker/internal/logging"
	"github.com/veridoc/idverify-worker/internal/pipeline"
	"github.com/veridoc/idverify-worker/internal/storage"
)

// Consumer consumes verification jobs from the Redis-backed queue, runs the
// pipeline, persists results and publishes completion events.
type Consumer struct {
	client   *asynq.Client
	server   *asynq.Server
	mux      *asynq.ServeMux
	pipeline *pipeline.Pipeline
	store    *storage.PostgresClient
	events   *redis.Client
	config   *ConsumerConfig
	log      *logging.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Pipeline          *pipeline.Pipeline
	Store             *storage.PostgresClient
	ProcessingTimeout int64 // milliseconds
	Logger            *logging.Logger
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("Pipeline is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger("queue")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	eventsOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL for events: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	log := cfg.Logger
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			// Exponential backoff: 5s, 10s, 20s, capped at 60s.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:   client,
		server:   server,
		mux:      mux,
		pipeline: cfg.Pipeline,
		store:    cfg.Store,
		events:   redis.NewClient(eventsOpt),
		config:   cfg,
		log:      log,
	}

	mux.HandleFunc(TaskTypeVerify, consumer.handleVerify)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.log.Error("queue consumer stopped", "error", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	c.log.Info("stopping queue consumer")

	c.server.Shutdown()

	if err := c.events.Close(); err != nil {
		return fmt.Errorf("failed to close events client: %w", err)
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	c.log.Info("queue consumer stopped")
	return nil
}

// handleVerify processes one verification job.
func (c *Consumer) handleVerify(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var payload VerifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal verify payload: %w", err)
	}

	c.log.Info("processing verification job", "job", payload.JobID, "file", payload.FilePath)

	if err := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
		JobID:  payload.JobID,
		Status: storage.StatusProcessing,
	}); err != nil {
		c.log.Warn("failed to update status to processing", "job", payload.JobID, "error", err)
	}
	c.publishEvent(ctx, payload.JobID, storage.StatusProcessing)

	timeout := 5 * time.Minute
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}
	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.pipeline.ProcessFile(processCtx, payload.FilePath, payload.ExpectedName, payload.ExpectedDOB)
	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			err = apperrors.NewProcessingTimeoutError(payload.JobID, timeout, err)
		}

		c.log.Error("verification failed", "job", payload.JobID, "duration", duration, "error", err)

		if updateErr := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
			JobID:            payload.JobID,
			Status:           storage.StatusFailed,
			ProcessingTimeMs: duration.Milliseconds(),
			ErrorCode:        string(apperrors.CodeOf(err)),
			ErrorMessage:     err.Error(),
		}); updateErr != nil {
			c.log.Warn("failed to update status to failed", "job", payload.JobID, "error", updateErr)
		}
		c.publishEvent(ctx, payload.JobID, storage.StatusFailed)

		return fmt.Errorf("verification failed: %w", err)
	}

	resultID, err := c.store.StoreResult(ctx, payload.JobID, result)
	if err != nil {
		storeErr := apperrors.NewStorageFailedError(payload.JobID, err)
		c.log.Error("failed to store result", "job", payload.JobID, "error", storeErr)

		if updateErr := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
			JobID:            payload.JobID,
			Status:           storage.StatusFailed,
			ProcessingTimeMs: duration.Milliseconds(),
			ErrorCode:        string(storeErr.Code),
			ErrorMessage:     storeErr.Error(),
		}); updateErr != nil {
			c.log.Warn("failed to update status to failed", "job", payload.JobID, "error", updateErr)
		}
		c.publishEvent(ctx, payload.JobID, storage.StatusFailed)

		return storeErr
	}

	c.log.Info("verification completed",
		"job", payload.JobID,
		"duration", duration,
		"overallPass", result.Validation.OverallPass,
		"source", result.OCRSource)

	if err := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
		JobID:            payload.JobID,
		Status:           storage.StatusCompleted,
		Confidence:       result.OCRMeanConfidence,
		ProcessingTimeMs: duration.Milliseconds(),
		ResultID:         resultID,
		OCREngine:        result.OCREngine,
		Metadata: map[string]interface{}{
			"overallPass": result.Validation.OverallPass,
			"ocrSource":   result.OCRSource,
			"warnings":    len(result.Warnings),
		},
	}); err != nil {
		c.log.Warn("failed to update status to completed", "job", payload.JobID, "error", err)
	}
	c.publishEvent(ctx, payload.JobID, storage.StatusCompleted)

	return nil
}

// publishEvent emits a job status event for WebSocket streaming on the
// "<queue>:events" channel.
func (c *Consumer) publishEvent(ctx context.Context, jobID, status string) {
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := c.events.Publish(ctx, fmt.Sprintf("%s:events", c.config.QueueName), data).Err(); err != nil {
		c.log.Warn("failed to publish job event", "job", jobID, "status", status, "error", err)
	}
}
