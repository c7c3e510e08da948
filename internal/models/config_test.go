package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, 1.0, cfg.RateLimit.RefillPerSecond)
	assert.Equal(t, 30*time.Second, cfg.Cache.FastTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.MediumTTL)
	assert.Equal(t, time.Hour, cfg.Cache.SlowTTL)
	assert.Equal(t, 30*time.Minute, cfg.Maintenance.CleanupInterval)
	assert.Equal(t, time.Hour, cfg.Maintenance.StatsInterval)

	require.NoError(t, cfg.Validate())
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ServerConfig)
		expectErr bool
	}{
		{name: "defaults valid", mutate: func(sc *ServerConfig) {}},
		{name: "port zero", mutate: func(sc *ServerConfig) { sc.Port = 0 }, expectErr: true},
		{name: "port too large", mutate: func(sc *ServerConfig) { sc.Port = 70000 }, expectErr: true},
		{name: "empty host", mutate: func(sc *ServerConfig) { sc.Host = "" }, expectErr: true},
		{name: "negative timeout", mutate: func(sc *ServerConfig) { sc.ReadTimeout = -time.Second }, expectErr: true},
		{name: "tls without cert", mutate: func(sc *ServerConfig) { sc.TLSEnabled = true }, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Server
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    RateLimitConfig
		expectErr bool
	}{
		{name: "valid", config: RateLimitConfig{Capacity: 60, RefillPerSecond: 1.0}},
		{name: "zero capacity", config: RateLimitConfig{Capacity: 0, RefillPerSecond: 1.0}, expectErr: true},
		{name: "zero refill", config: RateLimitConfig{Capacity: 60, RefillPerSecond: 0}, expectErr: true},
		{name: "negative refill", config: RateLimitConfig{Capacity: 60, RefillPerSecond: -1}, expectErr: true},
		{name: "negative idle threshold", config: RateLimitConfig{Capacity: 60, RefillPerSecond: 1.0, IdleThreshold: -time.Minute}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCacheConfig_Validate(t *testing.T) {
	valid := CacheConfig{FastTTL: time.Second, MediumTTL: time.Minute, SlowTTL: time.Hour}
	assert.NoError(t, valid.Validate())

	invalid := CacheConfig{FastTTL: 0, MediumTTL: time.Minute, SlowTTL: time.Hour}
	assert.Error(t, invalid.Validate())
}

func TestUpstreamConfig_Validate(t *testing.T) {
	valid := UpstreamConfig{BaseURL: "https://api.example.io", Timeout: 10 * time.Second}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&UpstreamConfig{Timeout: time.Second}).Validate())
	assert.Error(t, (&UpstreamConfig{BaseURL: "https://api.example.io"}).Validate())
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    LoggingConfig
		expectErr bool
	}{
		{name: "valid json stdout", config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{name: "valid text stderr", config: LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{name: "bad level", config: LoggingConfig{Level: "verbose", Format: "json", Output: "stdout"}, expectErr: true},
		{name: "bad format", config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"}, expectErr: true},
		{name: "file without path", config: LoggingConfig{Level: "info", Format: "json", Output: "file"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestObservabilityConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    ObservabilityConfig
		expectErr bool
	}{
		{
			name:   "tracing disabled",
			config: ObservabilityConfig{ServiceName: "pricegate", Tracing: TracingConfig{Enabled: false}},
		},
		{
			name:   "stdout exporter",
			config: ObservabilityConfig{ServiceName: "pricegate", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.0}},
		},
		{
			name:      "empty service name",
			config:    ObservabilityConfig{Tracing: TracingConfig{Enabled: false}},
			expectErr: true,
		},
		{
			name:      "unknown exporter",
			config:    ObservabilityConfig{ServiceName: "pricegate", Tracing: TracingConfig{Enabled: true, Exporter: "jaeger"}},
			expectErr: true,
		},
		{
			name:      "otlp without endpoint",
			config:    ObservabilityConfig{ServiceName: "pricegate", Tracing: TracingConfig{Enabled: true, Exporter: "otlp"}},
			expectErr: true,
		},
		{
			name:      "sample rate out of range",
			config:    ObservabilityConfig{ServiceName: "pricegate", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.5}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
