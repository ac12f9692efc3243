package plugbot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
    backend: redis
    redis_url: redis://localhost:6379
    prefix: bots
logging:
    level: debug
    format: text
lifecycle:
    start_timeout: 10s
    stop_timeout: 5s
`), 0o644))

	t.Run("from file", func(t *testing.T) {
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "redis", cfg.Storage.GetBackend())
		assert.Equal(t, "bots", cfg.Storage.GetPrefix())
		assert.Equal(t, "debug", cfg.Logging.GetLevel())
		assert.Equal(t, "text", cfg.Logging.GetFormat())
		assert.Equal(t, 10*time.Second, cfg.Lifecycle.GetStartTimeout())
		assert.Equal(t, 5*time.Second, cfg.Lifecycle.GetStopTimeout())
	})

	t.Run("from directory", func(t *testing.T) {
		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "redis", cfg.Storage.GetBackend())
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("directory without config", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("storage: ["), 0o644))
		_, err := LoadConfig(bad)
		assert.Error(t, err)
	})
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, "memory", cfg.Storage.GetBackend())
	assert.Equal(t, "plugbot", cfg.Storage.GetPrefix())
	assert.Equal(t, "info", cfg.Logging.GetLevel())
	assert.Equal(t, "json", cfg.Logging.GetFormat())
	assert.Equal(t, 30*time.Second, cfg.Lifecycle.GetStartTimeout())
	assert.Equal(t, 15*time.Second, cfg.Lifecycle.GetStopTimeout())

	lc := &LifecycleConfig{StartTimeout: "not-a-duration"}
	assert.Equal(t, 30*time.Second, lc.GetStartTimeout())
}
