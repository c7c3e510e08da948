package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Cache.FastTTL)
	assert.Equal(t, 30*time.Minute, cfg.Maintenance.CleanupInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
rate_limit:
  capacity: 5
  refill_per_second: 0.5
cache:
  fast_ttl: 10s
maintenance:
  cleanup_interval: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t, 0.5, cfg.RateLimit.RefillPerSecond)
	assert.Equal(t, 10*time.Second, cfg.Cache.FastTTL)
	assert.Equal(t, time.Minute, cfg.Maintenance.CleanupInterval)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5*time.Minute, cfg.Cache.MediumTTL)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PRICEGATE_PORT", "7070")
	t.Setenv("PRICEGATE_RATE_LIMIT_CAPACITY", "10")
	t.Setenv("PRICEGATE_RATE_LIMIT_REFILL_PER_SECOND", "2.5")
	t.Setenv("PRICEGATE_CACHE_FAST_TTL", "15s")
	t.Setenv("PRICEGATE_UPSTREAM_API_KEY", "secret")
	t.Setenv("PRICEGATE_METRICS_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.Capacity)
	assert.Equal(t, 2.5, cfg.RateLimit.RefillPerSecond)
	assert.Equal(t, 15*time.Second, cfg.Cache.FastTTL)
	assert.Equal(t, "secret", cfg.Upstream.APIKey)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))
	t.Setenv("PRICEGATE_PORT", "9001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("PRICEGATE_RATE_LIMIT_CAPACITY", "0")

	_, err := Load("")
	assert.Error(t, err)
}

func TestSaveExample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example", "config.yaml")

	require.NoError(t, SaveExample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "your-upstream-api-key-here", cfg.Upstream.APIKey)
}
