package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("MEALSHELL_API_BASE_URL", "http://backend.test/")
		t.Setenv("MEALSHELL_EXPECTED_AUDIENCE", "client-123")
		t.Setenv("MEALSHELL_STATE_PATH", "/tmp/state.db")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "http://backend.test", cfg.APIBaseURL)
		assert.Equal(t, "1", cfg.APIVersion)
		assert.Equal(t, "client-123", cfg.ExpectedAudience)
		assert.Equal(t, "/tmp/state.db", cfg.StatePath)
		assert.True(t, cfg.RequireAuth)
		assert.Equal(t, 15*time.Second, cfg.CacheTTL)
		assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 30, cfg.MetricsRetentionDays)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("MEALSHELL_API_BASE_URL", "http://backend.test")
		t.Setenv("MEALSHELL_REQUIRE_AUTH", "false")
		t.Setenv("MEALSHELL_CACHE_TTL", "3s")
		t.Setenv("MEALSHELL_LOG_FORMAT", "json")
		t.Setenv("MEALSHELL_METRICS_RETENTION_DAYS", "0")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.False(t, cfg.RequireAuth)
		assert.Equal(t, 3*time.Second, cfg.CacheTTL)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Zero(t, cfg.MetricsRetentionDays)
		assert.NotEmpty(t, cfg.StatePath)
	})

	t.Run("MissingBaseURL", func(t *testing.T) {
		t.Setenv("MEALSHELL_API_BASE_URL", "")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "MEALSHELL_API_BASE_URL environment variable not set", err.Error())
	})

	t.Run("InvalidCacheTTL", func(t *testing.T) {
		t.Setenv("MEALSHELL_API_BASE_URL", "http://backend.test")
		t.Setenv("MEALSHELL_CACHE_TTL", "0s")

		_, err := NewFromEnv()
		require.Error(t, err)
	})

	t.Run("NegativeRetention", func(t *testing.T) {
		t.Setenv("MEALSHELL_API_BASE_URL", "http://backend.test")
		t.Setenv("MEALSHELL_METRICS_RETENTION_DAYS", "-1")

		_, err := NewFromEnv()
		require.Error(t, err)
	})
}
