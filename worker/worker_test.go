package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/conform-io/conform/queue"
	"github.com/conform-io/conform/registry"
	"github.com/conform-io/conform/schema"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func setupTestQueue(t *testing.T) *queue.RedisClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := queue.NewRedisClient(queue.RedisOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func setupTestStore(t *testing.T) *registry.Memory {
	t.Helper()

	store := registry.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Put(context.Background(), registry.Entry{
		Name: "users/user",
		Schema: schema.Object(map[string]schema.Schema{
			"name": schema.String,
			"age":  schema.Optional(schema.Uint8),
		}),
	}))

	return store
}

func newJob(doc string, strip bool) queue.Job {
	return queue.Job{
		ID:           uuid.New().String(),
		SchemaName:   "users/user",
		Document:     json.RawMessage(doc),
		Strip:        strip,
		ReplyChannel: "conform:results:test",
		SubmittedAt:  time.Now().UnixMilli(),
	}
}

func TestProcessJobValid(t *testing.T) {
	store := setupTestStore(t)

	result := processJob(context.Background(), store, newJob(`{"name": "Alice", "age": 30}`, false), "w1", nil)

	assert.Empty(t, result.Error)
	assert.True(t, result.Valid)
	assert.Nil(t, result.Stripped)
	assert.Equal(t, "w1", result.WorkerID)
	assert.NotZero(t, result.CompletedAt)
}

func TestProcessJobInvalidDocument(t *testing.T) {
	store := setupTestStore(t)

	result := processJob(context.Background(), store, newJob(`{"name": 42}`, true), "w1", nil)

	assert.Empty(t, result.Error, "non-conformance is a verdict, not an error")
	assert.False(t, result.Valid)
	assert.Nil(t, result.Stripped, "invalid documents are never stripped")
}

func TestProcessJobStrips(t *testing.T) {
	store := setupTestStore(t)

	result := processJob(context.Background(), store, newJob(`{"name": "Alice", "debug": true}`, true), "w1", nil)

	require.Empty(t, result.Error)
	assert.True(t, result.Valid)
	assert.JSONEq(t, `{"name": "Alice"}`, string(result.Stripped))
}

func TestProcessJobUnknownSchema(t *testing.T) {
	store := setupTestStore(t)

	job := newJob(`{}`, false)
	job.SchemaName = "no/such/schema"
	result := processJob(context.Background(), store, job, "w1", nil)

	assert.Contains(t, result.Error, "unknown schema")
	assert.False(t, result.Valid)
}

func TestProcessJobUnreadableDocument(t *testing.T) {
	store := setupTestStore(t)

	result := processJob(context.Background(), store, newJob(`{"name":`, false), "w1", nil)

	assert.Contains(t, result.Error, "unreadable document")
}

func TestProcessJobIncomplete(t *testing.T) {
	store := setupTestStore(t)

	result := processJob(context.Background(), store, queue.Job{ID: "x"}, "w1", nil)

	assert.NotEmpty(t, result.Error)
}

func TestWorkerLoopEndToEnd(t *testing.T) {
	store := setupTestStore(t)
	client := setupTestQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := client.Subscribe(ctx, "conform:results:test")
	require.NoError(t, err)

	loopCtx, stopLoop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		workerLoop(loopCtx, 0, store, client, queue.DefaultQueue, "w1", newTestLogger(), nil)
	}()

	job := newJob(`{"name": "Alice", "extra": 1}`, true)
	require.NoError(t, client.Push(ctx, queue.DefaultQueue, job))

	select {
	case result := <-results:
		assert.Equal(t, job.ID, result.JobID)
		assert.True(t, result.Valid)
		assert.JSONEq(t, `{"name": "Alice"}`, string(result.Stripped))
	case <-ctx.Done():
		t.Fatal("did not receive result")
	}

	stopLoop()
	wg.Wait()
}

func TestWorkerLoopStopsOnCancel(t *testing.T) {
	store := setupTestStore(t)
	client := setupTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		workerLoop(ctx, 0, store, client, queue.DefaultQueue, "w1", newTestLogger(), nil)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker loop did not stop on context cancellation")
	}
}

func TestTelemetryRecordsSpans(t *testing.T) {
	store := setupTestStore(t)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tel, err := NewTelemetry(noop.NewMeterProvider(), tp)
	require.NoError(t, err)

	result := processJob(context.Background(), store, newJob(`{"name": "Alice"}`, false), "w1", tel)
	require.Empty(t, result.Error)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "conform.validate", spans[0].Name())
}

func TestNewTracerProvider(t *testing.T) {
	tp := NewTracerProvider(tracetest.NewInMemoryExporter())
	require.NotNil(t, tp)

	tracer := tp.Tracer("test")
	_, span := tracer.Start(context.Background(), "test-span")
	span.End()
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	opts.applyDefaults()

	assert.Equal(t, "redis://localhost:6379", opts.RedisURL)
	assert.Equal(t, queue.DefaultQueue, opts.Queue)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, 30*time.Second, opts.ShutdownTimeout)
	assert.NotNil(t, opts.Logger)
}
