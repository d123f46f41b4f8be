package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "libsql", cfg.Store.Driver)
	require.NotEmpty(t, cfg.Store.Path, "empty store config must fall back to the default path")

	require.Equal(t, time.Minute, cfg.Checks.CacheTTL)
	require.Equal(t, 5*time.Second, cfg.Checks.Timeout)
	require.Equal(t, 3, cfg.Checks.PerPlatformConcurrency)
	require.Equal(t, 10, cfg.Checks.PerPlatformMaxRPS)
	require.Equal(t, 5, cfg.Checks.BulkMaxConcurrency)
	require.Equal(t, 50, cfg.Checks.BulkMaxHandles)
	require.Zero(t, cfg.Checks.GlobalMaxRPS)

	require.Equal(t, "info", cfg.Logging.Level)
	require.True(t, cfg.Metrics.Enabled)
	require.True(t, cfg.Health.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 127.0.0.1
  port: 9090
checks:
  cache_ttl: 2m
  bulk_max_handles: 10
logging:
  level: debug
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 2*time.Minute, cfg.Checks.CacheTTL)
	require.Equal(t, 10, cfg.Checks.BulkMaxHandles)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.False(t, cfg.Metrics.Enabled)

	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.Checks.PerPlatformConcurrency)
	require.True(t, cfg.Health.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HANDLESCOPE_SERVER_PORT", "7070")
	t.Setenv("HANDLESCOPE_CHECKS_BULK_MAX_HANDLES", "5")
	t.Setenv("HANDLESCOPE_CHECKS_TIMEOUT", "3s")
	t.Setenv("HANDLESCOPE_LOGGING_LEVEL", "warn")

	path := writeConfigFile(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 5, cfg.Checks.BulkMaxHandles)
	require.Equal(t, 3*time.Second, cfg.Checks.Timeout)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	t.Setenv("HANDLESCOPE_SERVER_PORT", "7070")

	path := writeConfigFile(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadKeepsExplicitStoreURL(t *testing.T) {
	path := writeConfigFile(t, "store:\n  url: libsql://example.turso.io\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "libsql://example.turso.io", cfg.Store.URL)
	require.Empty(t, cfg.Store.Path, "remote URL must not pick up a local path fallback")
}

func TestGetConfigReflectsLoad(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 6060\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Same(t, cfg, GetConfig())
}
