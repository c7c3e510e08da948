package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pricegate/internal/cache"
	"pricegate/internal/gateway"
)

// InstrumentedGateway wraps a gateway.Executor with OpenTelemetry tracing
// and metrics instrumentation. Every call records a span, a latency
// histogram sample, and counters for rate limit denials and upstream fetch
// failures.
type InstrumentedGateway struct {
	inner    gateway.Executor
	tracer   trace.Tracer
	duration metric.Float64Histogram
	denials  metric.Int64Counter
	errors   metric.Int64Counter
}

// NewInstrumentedGateway creates a gateway wrapper that records trace spans
// and operation metrics for every Execute call.
func NewInstrumentedGateway(inner gateway.Executor) (*InstrumentedGateway, error) {
	tracer := otel.Tracer("pricegate/gateway")
	meter := otel.Meter("pricegate/gateway")

	duration, err := meter.Float64Histogram(
		"gateway.request.duration",
		metric.WithDescription("Duration of gateway requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	denials, err := meter.Int64Counter(
		"gateway.ratelimit.denials",
		metric.WithDescription("Number of requests denied by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"gateway.request.errors",
		metric.WithDescription("Number of gateway requests that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGateway{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		denials:  denials,
		errors:   errCounter,
	}, nil
}

// Execute delegates to the wrapped gateway, recording a span and metrics
// around the call. The cache category is attached to every signal so
// per-tier behavior is visible; client identifiers and cache keys are
// deliberately left off metric labels to keep cardinality bounded.
func (g *InstrumentedGateway) Execute(ctx context.Context, clientID string, category cache.Category, key string, fetch cache.FetchFunc) (any, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.Execute",
		trace.WithAttributes(
			attribute.String("cache.category", string(category)),
			attribute.String("cache.key", key),
		),
	)

	start := time.Now()
	result, err := g.inner.Execute(ctx, clientID, category, key, fetch)
	elapsed := time.Since(start).Seconds()

	attrs := metric.WithAttributes(attribute.String("category", string(category)))
	g.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		var rateErr *gateway.RateLimitError
		if errors.As(err, &rateErr) {
			g.denials.Add(ctx, 1, attrs)
			span.SetAttributes(attribute.Bool("ratelimit.denied", true))
		} else {
			g.errors.Add(ctx, 1, attrs)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
	return result, err
}
