// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all runtime configuration for the govjobs service.
type Config struct {
	Port     string `env:"PORT"      envDefault:"8083"`
	GRPCPort string `env:"GRPC_PORT" envDefault:"9083"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver          string `env:"STORE_DRIVER"            envDefault:"postgres"`
	DatabaseURL          string `env:"DATABASE_URL"`
	RedisURL             string `env:"REDIS_URL"` // empty disables the geocode hot tier and events
	RunMigrationsOnStart bool   `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	Ingest  IngestConfig
	Geocode GeocodeConfig
}

// IngestConfig controls the ingestion orchestrator and source fetching.
type IngestConfig struct {
	IntervalHours   int           `env:"INGEST_INTERVAL_HOURS" envDefault:"6"` // How often the cron job fires
	Workers         int           `env:"INGEST_WORKERS"        envDefault:"4"`
	SourceTimeout   time.Duration `env:"SOURCE_TIMEOUT"        envDefault:"60s"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT"         envDefault:"20s"`
	FetchRPSPerHost float64       `env:"FETCH_RPS_PER_HOST"    envDefault:"2"`
	UserAgent       string        `env:"USER_AGENT"            envDefault:"govjobs-ingest/1.0 (+https://jobmate.app/bot)"`
	RunOnStart      bool          `env:"INGEST_RUN_ON_START"   envDefault:"true"`
}

// GeocodeConfig controls the reverse-geocode cache and its provider.
type GeocodeConfig struct {
	ProviderURL string        `env:"GEOCODE_PROVIDER_URL"` // empty: every miss is "unavailable"
	Timeout     time.Duration `env:"GEOCODE_TIMEOUT"       envDefault:"5s"`
	RPS         float64       `env:"GEOCODE_RPS"           envDefault:"1"`
	CacheTTL    time.Duration `env:"GEO_CACHE_TTL"         envDefault:"720h"`
	PurgeSpec   string        `env:"GEO_CACHE_PURGE_CRON"  envDefault:"@daily"`
}

// Load reads environment variables (and a .env file when present) and returns
// a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.sanitize()
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}

	if c.Ingest.IntervalHours < 1 {
		return fmt.Errorf("INGEST_INTERVAL_HOURS must be a positive integer, got %d", c.Ingest.IntervalHours)
	}
	if _, err := cron.ParseStandard(c.Geocode.PurgeSpec); err != nil {
		return fmt.Errorf("GEO_CACHE_PURGE_CRON %q: %w", c.Geocode.PurgeSpec, err)
	}
	return nil
}

// sanitize applies guardrails to values that are valid but unusable.
func (c *Config) sanitize() {
	if c.Ingest.Workers < 1 {
		c.Ingest.Workers = 1
	}
	if c.Ingest.Workers > 32 {
		c.Ingest.Workers = 32
	}
	if c.Ingest.FetchTimeout <= 0 {
		c.Ingest.FetchTimeout = 20 * time.Second
	}
	if c.Ingest.SourceTimeout < c.Ingest.FetchTimeout {
		c.Ingest.SourceTimeout = c.Ingest.FetchTimeout
	}
	if c.Ingest.FetchRPSPerHost <= 0 {
		c.Ingest.FetchRPSPerHost = 2
	}
	if c.Geocode.Timeout <= 0 {
		c.Geocode.Timeout = 5 * time.Second
	}
	if c.Geocode.RPS <= 0 {
		c.Geocode.RPS = 1
	}
	if c.Geocode.CacheTTL <= 0 {
		c.Geocode.CacheTTL = 30 * 24 * time.Hour
	}
	c.Geocode.ProviderURL = strings.TrimRight(strings.TrimSpace(c.Geocode.ProviderURL), "/")
}

// IngestSpec returns the cron spec for the ingestion schedule.
func (c *Config) IngestSpec() string {
	return fmt.Sprintf("@every %dh", c.Ingest.IntervalHours)
}
