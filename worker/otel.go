package worker

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/conform-io/conform/queue"
)

// Telemetry holds the OpenTelemetry instruments used by the worker. These
// are created once via NewTelemetry and reused for every job. A nil
// *Telemetry disables instrumentation entirely.
type Telemetry struct {
	tracer trace.Tracer

	// jobCounter increments for each processed job
	jobCounter metric.Int64Counter

	// jobDuration records job processing time in milliseconds
	jobDuration metric.Float64Histogram
}

// NewTelemetry creates the worker's metric instruments and tracer from the
// given providers.
func NewTelemetry(mp metric.MeterProvider, tp trace.TracerProvider) (*Telemetry, error) {
	meter := mp.Meter("conform.worker")

	jobCounter, err := meter.Int64Counter(
		"conform.jobs",
		metric.WithDescription("Number of validation jobs processed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create job counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram(
		"conform.job.duration",
		metric.WithDescription("Validation job processing time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Telemetry{
		tracer:      tp.Tracer("conform.worker"),
		jobCounter:  jobCounter,
		jobDuration: jobDuration,
	}, nil
}

// NewTracerProvider creates a TracerProvider with a SimpleSpanProcessor, so
// spans are exported as soon as they complete, tagged with the conform
// service name.
func NewTracerProvider(exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("conform-worker"),
		),
	)
	if err != nil {
		res = resource.Default()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
}

// startJobSpan opens a span for one job. Safe on a nil receiver.
func (t *Telemetry) startJobSpan(ctx context.Context, job queue.Job) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "conform.validate",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("schema.name", job.SchemaName),
			attribute.Bool("job.strip", job.Strip),
		),
	)
}

// recordJob records the outcome of one job on the metric instruments and the
// active span. Safe on a nil receiver.
func (t *Telemetry) recordJob(ctx context.Context, job queue.Job, result queue.Result, elapsed time.Duration) {
	span := trace.SpanFromContext(ctx)
	if result.Error != "" {
		span.SetStatus(codes.Error, result.Error)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Bool("job.valid", result.Valid))
	}

	if t == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("schema.name", job.SchemaName),
		attribute.Bool("valid", result.Valid),
		attribute.Bool("errored", result.Error != ""),
	)
	t.jobCounter.Add(ctx, 1, attrs)
	t.jobDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}
