package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"

	"github.com/joho/godotenv"
)

const AppName = "ward-pickup-service"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string
	DBDriver string
	DBPath   string
	// Required when DBDriver is postgres.
	DatabaseURL string
	SeedPath    string

	JWTSecret string

	// Empty disables the account cache.
	RedisURL        string
	AccountCacheTTL time.Duration

	Depot       domain.Location
	CORSOrigins []string
}

// LoadDotEnv loads .env into the process environment when the file exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		obs.Logger.Debug("no .env file found, using process environment")
	}
}

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the service configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        Get("PORT", "8080"),
		DBDriver:    strings.ToLower(Get("DB_DRIVER", DriverSQLite)),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: Get("DATABASE_URL", ""),
		SeedPath:    Get("SEED_PATH", ""),
		JWTSecret:   Get("JWT_SECRET", ""),
		RedisURL:    Get("REDIS_URL", ""),
		CORSOrigins: splitList(Get("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	var errs []error

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DBDriver))
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	ttl, err := time.ParseDuration(Get("ACCOUNT_CACHE_TTL", "5m"))
	if err != nil {
		errs = append(errs, fmt.Errorf("ACCOUNT_CACHE_TTL: %w", err))
	}
	cfg.AccountCacheTTL = ttl

	lat, err := getFloat("DEPOT_LAT", 26.1445)
	if err != nil {
		errs = append(errs, err)
	}
	lng, err := getFloat("DEPOT_LNG", 91.7362)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Depot = domain.Location{Lat: lat, Lng: lng}
	if !cfg.Depot.Valid() {
		errs = append(errs, fmt.Errorf("depot (%v, %v) is not a valid coordinate", lat, lng))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
