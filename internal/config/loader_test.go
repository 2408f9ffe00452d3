package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileProducesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Session.DefaultDurationMinutes)
	assert.Equal(t, 120, cfg.Session.WarningLeadSeconds)
	assert.Equal(t, 5, cfg.Session.TickIntervalSeconds)
	assert.Equal(t, 3, cfg.Session.PostCloseGraceSeconds)
	assert.Equal(t, 4000, cfg.History.MaxTokens)
	assert.Equal(t, 20, cfg.History.MaxMessages)
	assert.Equal(t, 6, cfg.History.MinMessages)
	assert.Equal(t, 3, cfg.Providers.Generation.FailureThreshold)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
session:
  defaultDurationMinutes: 45
  warningLeadSeconds: 60
history:
  maxMessages: 40
providers:
  generation:
    primary:
      name: gemini
      model: gemini-1.5-flash
    failureThreshold: 5
store:
  driver: redis
  redisUrl: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Session.DefaultDurationMinutes)
	assert.Equal(t, 60, cfg.Session.WarningLeadSeconds)
	assert.Equal(t, 40, cfg.History.MaxMessages)
	// Unset fields still get defaults.
	assert.Equal(t, 4000, cfg.History.MaxTokens)
	assert.Equal(t, 5, cfg.Providers.Generation.FailureThreshold)
	assert.Equal(t, "gemini", cfg.Providers.Generation.Primary.Name)
	assert.Equal(t, "redis", cfg.Store.Driver)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: [not a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandSensitiveFields(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "sk-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers:
  generation:
    primary:
      name: gemini
      apiKey: ${TEST_GEMINI_KEY}
    secondary:
      apiKey: ${TEST_UNSET_VAR_XYZ}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-secret", cfg.Providers.Generation.Primary.APIKey)
	// Unset variables are left as-is.
	assert.Equal(t, "${TEST_UNSET_VAR_XYZ}", cfg.Providers.Generation.Secondary.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INTERVIEWD_SIGNAL_PORT", "9999")
	t.Setenv("INTERVIEWD_STORE_DRIVER", "memory")
	t.Setenv("INTERVIEWD_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Signal.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
