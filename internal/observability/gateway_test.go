package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricegate/internal/cache"
	"pricegate/internal/gateway"
	"pricegate/internal/models"
	"pricegate/internal/ratelimit"
	"pricegate/internal/version"
)

func setupTestProvider(t *testing.T) *Provider {
	t.Helper()
	metrics := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	obs := models.ObservabilityConfig{
		ServiceName: "test",
		Tracing: models.TracingConfig{
			Enabled:    true,
			Exporter:   "stdout",
			SampleRate: 1.0,
		},
	}
	provider, err := Setup(metrics, obs, version.Info{})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })
	return provider
}

func setupGateway(t *testing.T, capacity int) gateway.Executor {
	t.Helper()
	limiter := ratelimit.NewMemoryLimiter(capacity, 0.000001, time.Hour)
	registry := cache.NewRegistry(cache.Config{
		FastTTL:   time.Minute,
		MediumTTL: time.Minute,
		SlowTTL:   time.Minute,
	})
	return gateway.New(limiter, registry)
}

func TestNewInstrumentedGateway(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedGateway(setupGateway(t, 10))
	require.NoError(t, err)
	assert.NotNil(t, instrumented)
}

func TestInstrumentedGateway_Execute(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedGateway(setupGateway(t, 10))
	require.NoError(t, err)

	result, err := instrumented.Execute(context.Background(), "client-1", cache.CategorySpotPrice, "1:0xabc:USD",
		func(ctx context.Context) (any, error) {
			return "value", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "value", result)
}

func TestInstrumentedGateway_RateLimitDenialPropagates(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedGateway(setupGateway(t, 1))
	require.NoError(t, err)

	ctx := context.Background()
	fetch := func(ctx context.Context) (any, error) { return "value", nil }

	_, err = instrumented.Execute(ctx, "client-1", cache.CategorySpotPrice, "key-a", fetch)
	require.NoError(t, err)

	_, err = instrumented.Execute(ctx, "client-1", cache.CategorySpotPrice, "key-b", fetch)
	require.Error(t, err)

	var rateErr *gateway.RateLimitError
	assert.True(t, errors.As(err, &rateErr))
}

func TestInstrumentedGateway_FetchErrorPropagates(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedGateway(setupGateway(t, 10))
	require.NoError(t, err)

	fetchErr := errors.New("upstream down")
	_, err = instrumented.Execute(context.Background(), "client-1", cache.CategorySpotPrice, "key",
		func(ctx context.Context) (any, error) {
			return nil, fetchErr
		})
	assert.ErrorIs(t, err, fetchErr)
}
