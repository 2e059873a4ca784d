package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4, cfg.Pool.MaxConnections)
	assert.Equal(t, 3, cfg.Pool.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)

	d, err := cfg.RetryInterval()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
pool:
  max_connections: 8
  max_retries: 5
  retry_interval: 2s
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pool.MaxConnections)
	assert.Equal(t, 5, cfg.Pool.MaxRetries)
	assert.Equal(t, "debug", cfg.LogLevel)

	d, err := cfg.RetryInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
pool:
  max_connections: 16
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Pool.MaxConnections)
	assert.Equal(t, 3, cfg.Pool.MaxRetries)
	assert.Equal(t, "500ms", cfg.Pool.RetryInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadInterval(t *testing.T) {
	path := writeConfig(t, `
pool:
  retry_interval: soon
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry_interval")
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "pool: [not: a map")
	_, err := Load(path)
	assert.Error(t, err)
}
