package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/govjobs-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/govjobs")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "9083", cfg.GRPCPort)
	assert.Equal(t, config.StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 6, cfg.Ingest.IntervalHours)
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, 20*time.Second, cfg.Ingest.FetchTimeout)
	assert.Equal(t, 720*time.Hour, cfg.Geocode.CacheTTL)
	assert.Equal(t, "@every 6h", cfg.IngestSpec())
	assert.Empty(t, cfg.Geocode.ProviderURL)
}

func TestLoad_DatabaseURLRequiredForPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_MemoryDriverNeedsNoDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", " Memory ")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverMemory, cfg.StoreDriver)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("INGEST_INTERVAL_HOURS", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_INTERVAL_HOURS")
}

func TestLoad_RejectsBadPurgeSpec(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("GEO_CACHE_PURGE_CRON", "whenever")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_Sanitize(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("INGEST_WORKERS", "500")
	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("SOURCE_TIMEOUT", "5s")
	t.Setenv("GEOCODE_PROVIDER_URL", " https://nominatim.example.org/ ")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Ingest.Workers)
	assert.Equal(t, 30*time.Second, cfg.Ingest.SourceTimeout, "source timeout must cover one fetch")
	assert.Equal(t, "https://nominatim.example.org", cfg.Geocode.ProviderURL)
}
