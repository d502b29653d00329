package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanlong1004/lucida-flow/config"
)

func TestFromString(t *testing.T) {
	t.Parallel()

	t.Run("DefaultsApplied", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.FromString("")
		require.NoError(t, err)
		assert.Exactly(t, "https://lucida.to", cfg.BaseURL)
		assert.Exactly(t, 30, cfg.RequestsPerMinute)
		assert.Exactly(t, 500, cfg.RequestsPerHour)
		assert.InDelta(t, 2.0, cfg.MinDelaySeconds, 1e-9)
		assert.Exactly(t, 30, cfg.RequestTimeoutSeconds)
	})

	t.Run("OverridesKept", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.FromString("requests_per_minute: 5\nmin_delay_seconds: 0.5\nbase_url: https://example.test\n")
		require.NoError(t, err)
		assert.Exactly(t, 5, cfg.RequestsPerMinute)
		assert.InDelta(t, 0.5, cfg.MinDelaySeconds, 1e-9)
		assert.Exactly(t, "https://example.test", cfg.BaseURL)
	})

	t.Run("RejectsNegativeBudget", func(t *testing.T) {
		t.Parallel()
		_, err := config.FromString("requests_per_minute: -1\n")
		assert.Error(t, err)
	})

	t.Run("RejectsMalformedYAML", func(t *testing.T) {
		t.Parallel()
		_, err := config.FromString("requests_per_minute: [\n")
		assert.Error(t, err)
	})
}
