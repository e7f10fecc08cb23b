package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings, loaded from the environment with
// sensible defaults. A .env file is honored when present.
type Config struct {
	// HTTP API
	ListenAddr string // FXSTATE_LISTEN_ADDR (default ":8080")

	// Document time-series store (Postgres)
	DocStoreDSN string // FXSTATE_DOCSTORE_DSN

	// Relational metadata store (DuckDB file path, ":memory:" for ephemeral)
	MetaStorePath string // FXSTATE_METASTORE_PATH (default "fxstate.duckdb")

	// Market data provider
	ProviderBaseURL   string        // FXSTATE_PROVIDER_URL
	ProviderToken     string        // FXSTATE_PROVIDER_TOKEN
	ProviderAccountID string        // FXSTATE_PROVIDER_ACCOUNT
	ProviderTimeout   time.Duration // FXSTATE_PROVIDER_TIMEOUT (default 30s)
	ProviderRateRPS   float64       // FXSTATE_PROVIDER_RATE_RPS (default 4)

	// Synchronizer
	SyncWorkers int // FXSTATE_SYNC_WORKERS (default 4)

	// Indicator configuration file
	IndicatorConfigPath string // FXSTATE_INDICATOR_CONFIG (default "config/indicator_parameters.yaml")
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:          getenvDefault("FXSTATE_LISTEN_ADDR", ":8080"),
		DocStoreDSN:         os.Getenv("FXSTATE_DOCSTORE_DSN"),
		MetaStorePath:       getenvDefault("FXSTATE_METASTORE_PATH", "fxstate.duckdb"),
		ProviderBaseURL:     getenvDefault("FXSTATE_PROVIDER_URL", "https://api-fxpractice.oanda.com/v3"),
		ProviderToken:       os.Getenv("FXSTATE_PROVIDER_TOKEN"),
		ProviderAccountID:   os.Getenv("FXSTATE_PROVIDER_ACCOUNT"),
		ProviderTimeout:     durationFromEnv("FXSTATE_PROVIDER_TIMEOUT", 30*time.Second),
		ProviderRateRPS:     floatFromEnv("FXSTATE_PROVIDER_RATE_RPS", 4),
		SyncWorkers:         intFromEnv("FXSTATE_SYNC_WORKERS", 4),
		IndicatorConfigPath: getenvDefault("FXSTATE_INDICATOR_CONFIG", "config/indicator_parameters.yaml"),
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}

	return def
}
