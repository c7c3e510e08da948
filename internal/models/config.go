// Package models - Service configuration and operational settings.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration structure containing all service
// settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`           // Third-party market data API
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`       // Per-client admission control
	Cache         CacheConfig         `yaml:"cache" json:"cache"`                 // Tiered response cache
	Maintenance   MaintenanceConfig   `yaml:"maintenance" json:"maintenance"`     // Background job intervals
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Structured logging
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Prometheus metrics endpoint
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig configures the per-client token buckets. IdleThreshold
// zero means "derive from the maintenance cleanup interval" (2x) at wiring
// time.
type RateLimitConfig struct {
	Capacity        int           `yaml:"capacity" json:"capacity"`
	RefillPerSecond float64       `yaml:"refill_per_second" json:"refill_per_second"`
	IdleThreshold   time.Duration `yaml:"idle_threshold" json:"idle_threshold"`
}

// CacheConfig holds the per-tier TTLs: fast for spot data (prices, quotes,
// gas), medium for balances and portfolio snapshots, slow for relatively
// static data such as token metadata and history.
type CacheConfig struct {
	FastTTL   time.Duration `yaml:"fast_ttl" json:"fast_ttl"`
	MediumTTL time.Duration `yaml:"medium_ttl" json:"medium_ttl"`
	SlowTTL   time.Duration `yaml:"slow_ttl" json:"slow_ttl"`
}

type MaintenanceConfig struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	StatsInterval   time.Duration `yaml:"stats_interval" json:"stats_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with defaults that work out of
// the box against a configured upstream. Rate limit and TTL defaults are
// deliberately conservative; they are tuning knobs, not contracts.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api.example-market-data.io",
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Capacity:        60,
			RefillPerSecond: 1.0,
			// IdleThreshold left zero: derived as 2x cleanup interval.
		},
		Cache: CacheConfig{
			FastTTL:   30 * time.Second,
			MediumTTL: 5 * time.Minute,
			SlowTTL:   time.Hour,
		},
		Maintenance: MaintenanceConfig{
			CleanupInterval: 30 * time.Minute,
			StatsInterval:   time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "pricegate",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("invalid upstream config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache config: %w", err)
	}

	if err := c.Maintenance.Validate(); err != nil {
		return fmt.Errorf("invalid maintenance config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (uc *UpstreamConfig) Validate() error {
	if uc.BaseURL == "" {
		return errors.New("upstream base URL cannot be empty")
	}

	if uc.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}

	return nil
}

func (rc *RateLimitConfig) Validate() error {
	if rc.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}

	if rc.RefillPerSecond <= 0 {
		return errors.New("refill rate must be positive")
	}

	if rc.IdleThreshold < 0 {
		return errors.New("idle threshold cannot be negative")
	}

	return nil
}

func (cc *CacheConfig) Validate() error {
	if cc.FastTTL <= 0 || cc.MediumTTL <= 0 || cc.SlowTTL <= 0 {
		return errors.New("tier TTLs must be positive")
	}

	return nil
}

func (mc *MaintenanceConfig) Validate() error {
	if mc.CleanupInterval <= 0 {
		return errors.New("cleanup interval must be positive")
	}

	if mc.StatsInterval <= 0 {
		return errors.New("stats interval must be positive")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validOutputs, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}

	if !oc.Tracing.Enabled {
		return nil
	}

	validExporters := []string{"stdout", "otlp"}
	if !contains(validExporters, oc.Tracing.Exporter) {
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.Exporter == "otlp" && oc.Tracing.OTLPEndpoint == "" {
		return errors.New("OTLP endpoint is required for the otlp exporter")
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
