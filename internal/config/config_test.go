package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topo/ingest/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("GOV_URL", "https://api.usa.gov/crime/fbi/cde")
	t.Setenv("GOV_API_KEY", "gov-key")
	t.Setenv("NOAA_API_KEY", "noaa-key")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "postgres://test-host/topo")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://test-host/topo", cfg.DatabaseURL)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, []string{"crime", "weather"}, cfg.Jobs)
	assert.True(t, cfg.Enabled(config.JobCrime))
	assert.True(t, cfg.Enabled(config.JobWeather))
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	setRequired(t)
	content := []byte("NOAA_BASE_URL=http://loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")
	defer os.Unsetenv("NOAA_BASE_URL")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "http://loaded-from-file", cfg.WeatherBaseURL)
}

func TestLoadConfig_Dispatch(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKERS", "2")
	t.Setenv("REGION_LIMIT", "1")
	t.Setenv("REGIONS", "VA,DE")
	t.Setenv("JOBS", "weather")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 1, cfg.Limit)
	assert.Equal(t, []string{"VA", "DE"}, cfg.Regions)
	assert.False(t, cfg.Enabled(config.JobCrime))
}

func TestLoadConfig_MissingKey(t *testing.T) {
	t.Setenv("JOBS", "crime")
	t.Setenv("GOV_URL", "https://api.usa.gov/crime/fbi/cde")
	t.Setenv("GOV_API_KEY", "")

	cfg, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingRequired)
	assert.Nil(t, cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JOBS", "crime,weather")
	t.Setenv("NOAA_API_KEY", "noaa-key")
	t.Setenv("GOV_API_KEY", "")

	// Dropping the crime job from the command line lifts its requirements.
	cfg, err := config.Load(func(c *config.Config) {
		c.Jobs = []string{config.JobWeather}
		c.Workers = 1
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"weather"}, cfg.Jobs)
	assert.Equal(t, 1, cfg.Workers)
}
