package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/conform-io/conform/queue"
	"github.com/conform-io/conform/registry"
	"github.com/conform-io/conform/schema"
	"github.com/conform-io/conform/value"
)

// Options configures the worker behavior.
type Options struct {
	// RedisURL is the Redis connection string (e.g., "redis://localhost:6379").
	// If empty, CONFORM_REDIS_URL is consulted, then the local default.
	RedisURL string

	// Queue is the job queue to consume. Defaults to queue.DefaultQueue.
	Queue string

	// Concurrency is the number of worker goroutines to start. Default 4.
	Concurrency int

	// ShutdownTimeout is the time to wait for graceful shutdown. Default 30s.
	ShutdownTimeout time.Duration

	// Logger is the structured logger for worker operations.
	// If nil, a JSON logger on stdout is created.
	Logger *slog.Logger

	// Telemetry carries the optional OpenTelemetry instruments; see
	// NewTelemetry. Nil disables instrumentation.
	Telemetry *Telemetry
}

func (o *Options) applyDefaults() {
	if o.RedisURL == "" {
		o.RedisURL = os.Getenv("CONFORM_REDIS_URL")
	}
	if o.RedisURL == "" {
		o.RedisURL = "redis://localhost:6379"
	}
	if o.Queue == "" {
		o.Queue = queue.DefaultQueue
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
}

// Run starts the validation worker loop against the given schema store.
//
// It connects to Redis, starts Concurrency worker goroutines that pop jobs,
// validate (and optionally strip) documents against registry schemas, and
// publish results, while a heartbeat goroutine maintains worker presence.
// The function blocks until SIGTERM/SIGINT, then shuts down gracefully,
// waiting up to ShutdownTimeout for in-flight jobs.
func Run(store registry.Store, opts Options) error {
	opts.applyDefaults()

	workerID := fmt.Sprintf("conform-%s", uuid.New().String())
	logger := opts.Logger.With("worker_id", workerID, "queue", opts.Queue)

	logger.Info("worker starting",
		"concurrency", opts.Concurrency,
		"redis_url", opts.RedisURL,
	)

	client, err := queue.NewRedisClient(queue.RedisOptions{URL: opts.RedisURL})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.IncrementWorkers(ctx, opts.Queue); err != nil {
		logger.Error("failed to increment worker count", "error", err)
	}
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := client.DecrementWorkers(cleanupCtx, opts.Queue); err != nil {
			logger.Error("failed to decrement worker count", "error", err)
		}
	}()

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go runHeartbeat(heartbeatCtx, client, workerID, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			workerLoop(ctx, workerNum, store, client, opts.Queue, workerID, logger, opts.Telemetry)
		}(i)
	}

	logger.Info("worker started", "workers", opts.Concurrency)

	sig := <-sigChan
	logger.Info("received signal, initiating graceful shutdown", "signal", sig)

	cancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("worker shutdown complete")
	case <-time.After(opts.ShutdownTimeout):
		logger.Warn("worker shutdown timeout exceeded", "timeout", opts.ShutdownTimeout)
	}

	return nil
}

// runHeartbeat refreshes the worker's liveness key until the context is
// cancelled.
func runHeartbeat(ctx context.Context, client queue.Client, workerID string, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(ctx, workerID); err != nil {
				// Heartbeat failures are transient; keep them quiet
				logger.Debug("heartbeat failed", "error", err)
			}
		}
	}
}

// workerLoop is the main loop for a single worker goroutine. It pops jobs,
// processes them, and publishes results until the context is cancelled.
func workerLoop(ctx context.Context, workerNum int, store registry.Store, client queue.Client, queueName, workerID string, logger *slog.Logger, tel *Telemetry) {
	logger = logger.With("worker_num", workerNum)
	logger.Debug("worker loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker loop stopped", "reason", "context_cancelled")
			return
		default:
		}

		job, err := client.Pop(ctx, queueName)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to pop job", "error", err)
			continue
		}
		if job == nil {
			continue
		}

		logger.Info("received job",
			"job_id", job.ID,
			"schema", job.SchemaName,
			"strip", job.Strip,
		)

		result := processJob(ctx, store, *job, workerID, tel)

		if job.ReplyChannel == "" {
			continue
		}
		if err := client.Publish(ctx, job.ReplyChannel, result); err != nil {
			logger.Error("failed to publish result", "job_id", job.ID, "error", err)
		}
	}
}

// processJob resolves the schema, validates the document, and optionally
// strips it. Every failure mode yields a Result; a non-conforming document
// is a normal Valid=false outcome, not an error.
func processJob(ctx context.Context, store registry.Store, job queue.Job, workerID string, tel *Telemetry) queue.Result {
	start := time.Now()

	ctx, span := tel.startJobSpan(ctx, job)
	defer span.End()

	result := queue.Result{
		JobID:    job.ID,
		WorkerID: workerID,
	}

	defer func() {
		result.CompletedAt = time.Now().UnixMilli()
		tel.recordJob(ctx, job, result, time.Since(start))
	}()

	if err := job.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}

	entry, err := store.Get(ctx, job.SchemaName)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			result.Error = fmt.Sprintf("unknown schema: %s", job.SchemaName)
		} else {
			result.Error = fmt.Sprintf("failed to resolve schema %s: %v", job.SchemaName, err)
		}
		return result
	}

	doc, err := value.DecodeJSON(job.Document)
	if err != nil {
		result.Error = fmt.Sprintf("unreadable document: %v", err)
		return result
	}

	result.Valid = schema.IsValid(doc, entry.Schema)
	if !result.Valid || !job.Strip {
		return result
	}

	stripped, err := schema.Strip(doc, entry.Schema)
	if err != nil {
		// Unreachable after a positive verdict; report rather than panic
		result.Error = fmt.Sprintf("strip failed after validation: %v", err)
		return result
	}

	data, err := value.EncodeJSON(stripped)
	if err != nil {
		result.Error = fmt.Sprintf("failed to serialize stripped document: %v", err)
		return result
	}
	result.Stripped = data
	return result
}
