package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "REDIS_URL", "ACCOUNT_CACHE_TTL", "DEPOT_LAT", "DEPOT_LNG", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/app.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.AccountCacheTTL)
	assert.InDelta(t, 26.1445, cfg.Depot.Lat, 1e-9)
	assert.InDelta(t, 91.7362, cfg.Depot.Lng, 1e-9)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/pickups")
	t.Setenv("ACCOUNT_CACHE_TTL", "30s")
	t.Setenv("DEPOT_LAT", "12.5")
	t.Setenv("DEPOT_LNG", "77.25")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.AccountCacheTTL)
	assert.InDelta(t, 12.5, cfg.Depot.Lat, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCOUNT_CACHE_TTL", "soon")
	t.Setenv("DEPOT_LAT", "north")
	t.Setenv("DEPOT_LNG", "")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "DATABASE_URL", "ACCOUNT_CACHE_TTL", "DEPOT_LAT"} {
		assert.Contains(t, err.Error(), want)
	}
}
