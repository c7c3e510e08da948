// Package config loads service configuration from an optional YAML file
// with environment variable overrides, validating the result before the
// service starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pricegate/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("PRICEGATE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("PRICEGATE_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("PRICEGATE_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("PRICEGATE_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("PRICEGATE_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("PRICEGATE_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("PRICEGATE_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("PRICEGATE_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Upstream configuration
	if baseURL := os.Getenv("PRICEGATE_UPSTREAM_BASE_URL"); baseURL != "" {
		config.Upstream.BaseURL = baseURL
	}

	if apiKey := os.Getenv("PRICEGATE_UPSTREAM_API_KEY"); apiKey != "" {
		config.Upstream.APIKey = apiKey
	}

	if timeout := os.Getenv("PRICEGATE_UPSTREAM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Upstream.Timeout = d
		}
	}

	// Rate limit configuration
	if capacity := os.Getenv("PRICEGATE_RATE_LIMIT_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			config.RateLimit.Capacity = c
		}
	}

	if refill := os.Getenv("PRICEGATE_RATE_LIMIT_REFILL_PER_SECOND"); refill != "" {
		if r, err := strconv.ParseFloat(refill, 64); err == nil {
			config.RateLimit.RefillPerSecond = r
		}
	}

	if idle := os.Getenv("PRICEGATE_RATE_LIMIT_IDLE_THRESHOLD"); idle != "" {
		if d, err := time.ParseDuration(idle); err == nil {
			config.RateLimit.IdleThreshold = d
		}
	}

	// Cache tier TTLs
	if ttl := os.Getenv("PRICEGATE_CACHE_FAST_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.FastTTL = d
		}
	}

	if ttl := os.Getenv("PRICEGATE_CACHE_MEDIUM_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.MediumTTL = d
		}
	}

	if ttl := os.Getenv("PRICEGATE_CACHE_SLOW_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.SlowTTL = d
		}
	}

	// Maintenance configuration
	if interval := os.Getenv("PRICEGATE_CLEANUP_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Maintenance.CleanupInterval = d
		}
	}

	if interval := os.Getenv("PRICEGATE_STATS_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Maintenance.StatsInterval = d
		}
	}

	// Logging configuration
	if level := os.Getenv("PRICEGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("PRICEGATE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("PRICEGATE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("PRICEGATE_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("PRICEGATE_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("PRICEGATE_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("PRICEGATE_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Tracing configuration
	if tracing := os.Getenv("PRICEGATE_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("PRICEGATE_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("PRICEGATE_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// SaveExample saves an example configuration file.
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.Upstream.APIKey = "your-upstream-api-key-here"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
