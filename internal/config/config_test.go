package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/adroute")
	t.Setenv("PORT", "")
	t.Setenv("DIRECTIONS_BASE_URL", "")
	t.Setenv("DIRECTIONS_ENABLED", "")
	t.Setenv("API_RATE_LIMIT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://router.project-osrm.org", cfg.DirectionsBaseURL)
	assert.True(t, cfg.DirectionsEnabled)
	assert.Equal(t, 600, cfg.APIRateLimit)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/adroute")
	t.Setenv("PORT", "9000")
	t.Setenv("DIRECTIONS_BASE_URL", "http://osrm:5000/")
	t.Setenv("DIRECTIONS_ENABLED", "false")
	t.Setenv("API_RATE_LIMIT", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://osrm:5000", cfg.DirectionsBaseURL)
	assert.False(t, cfg.DirectionsEnabled)
	assert.Equal(t, 120, cfg.APIRateLimit)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/adroute")
	t.Setenv("DIRECTIONS_ENABLED", "maybe")
	t.Setenv("API_RATE_LIMIT", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DirectionsEnabled)
	assert.Equal(t, 600, cfg.APIRateLimit)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}
