package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "threaded", cfg.Executor.Kind)
	assert.Equal(t, 33*time.Millisecond, cfg.Executor.MaxBlockingTime)
	assert.Equal(t, 16, cfg.Executor.CheckEveryN)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadOverridesDefaultsPartially(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
executor:
  kind: cooperative
metrics:
  enabled: true
  port: 9999
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cooperative", cfg.Executor.Kind)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9999, cfg.Metrics.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, 16, cfg.Executor.CheckEveryN)
	assert.Equal(t, 100, cfg.Scenarios.Iterations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
