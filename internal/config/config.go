package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

const (
	JobCrime   = "crime"
	JobWeather = "weather"
)

type Config struct {
	// DatabaseURL is a postgres:// URL or a sqlite path / file: URI.
	DatabaseURL string `envconfig:"DATABASE_URL" default:"topo.db"`
	CacheReset  bool   `envconfig:"CACHE_RESET" default:"false"`

	CrimeBaseURL   string `envconfig:"GOV_URL"`
	CrimeAPIKey    string `envconfig:"GOV_API_KEY"`
	WeatherBaseURL string `envconfig:"NOAA_BASE_URL" default:"https://www.ncei.noaa.gov/cdo-web/api/v2"`
	WeatherAPIKey  string `envconfig:"NOAA_API_KEY"`

	// Fetch
	MaxRetries       int           `envconfig:"FETCH_MAX_RETRIES" default:"3"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	WeatherRateLimit float64       `envconfig:"NOAA_RATE_LIMIT" default:"5"`
	UserAgent        string        `envconfig:"USER_AGENT" default:"topo-ingest/0.1"`

	// Dispatch
	Workers int      `envconfig:"WORKERS" default:"5"`
	Limit   int      `envconfig:"REGION_LIMIT" default:"10"`
	Regions []string `envconfig:"REGIONS"`
	Jobs    []string `envconfig:"JOBS" default:"crime,weather"`

	// Reporting
	NSQDHost       string `envconfig:"NSQD_HOST"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

// Load reads .env files and the environment, applies overrides (command
// line flags) and validates the result.
func Load(overrides ...func(*Config)) (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingRequired)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: WORKERS must be at least 1", ErrMissingRequired)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: FETCH_MAX_RETRIES must not be negative", ErrMissingRequired)
	}
	if len(c.Jobs) == 0 {
		return fmt.Errorf("%w: JOBS", ErrMissingRequired)
	}
	for _, job := range c.Jobs {
		switch strings.TrimSpace(job) {
		case JobCrime:
			if c.CrimeBaseURL == "" {
				return fmt.Errorf("%w: GOV_URL", ErrMissingRequired)
			}
			if c.CrimeAPIKey == "" {
				return fmt.Errorf("%w: GOV_API_KEY", ErrMissingRequired)
			}
		case JobWeather:
			if c.WeatherBaseURL == "" {
				return fmt.Errorf("%w: NOAA_BASE_URL", ErrMissingRequired)
			}
			if c.WeatherAPIKey == "" {
				return fmt.Errorf("%w: NOAA_API_KEY", ErrMissingRequired)
			}
		default:
			return fmt.Errorf("unknown job %q", job)
		}
	}
	return nil
}

// Enabled reports whether the named job is listed in Jobs.
func (c *Config) Enabled(job string) bool {
	for _, j := range c.Jobs {
		if strings.TrimSpace(j) == job {
			return true
		}
	}
	return false
}
