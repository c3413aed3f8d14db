package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; every variable has a usable default so the
// server starts with nothing set.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // public HTTP port
	OpsPort         string        // ops HTTP port (/healthz, /metrics); empty disables it
	DBPath          string        // SQLite file path
	ZipTable        string        // ZIP to county mapping table
	HealthTable     string        // county health rankings table
	BootstrapZip    string        // CSV loaded into ZipTable when the table is missing
	BootstrapHealth string        // CSV loaded into HealthTable when the table is missing
	LogLevel        string        // logrus level name
	LogFormat       string        // "text" or "json"
	ShutdownTimeout time.Duration // grace period for in-flight requests
	AMQPURL         string        // broker for dataset.loaded events; empty disables them
	Redis           RedisConfig
	Cache           CacheConfig
	RateLimit       RateLimitConfig
}

// Load seeds the environment from a .env file when one exists and reads the
// configuration. A missing .env is not an error; an unreadable one is.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:             getenv("APP_ENV", "dev"),
		Port:            getenv("APP_PORT", "5005"),
		OpsPort:         os.Getenv("OPS_PORT"),
		DBPath:          getenv("DB_PATH", "data.db"),
		ZipTable:        getenv("ZIP_TABLE", "zip_county"),
		HealthTable:     getenv("HEALTH_TABLE", "county_health_rankings"),
		BootstrapZip:    os.Getenv("BOOTSTRAP_ZIP_CSV"),
		BootstrapHealth: os.Getenv("BOOTSTRAP_HEALTH_CSV"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "text"),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		AMQPURL:         AMQPURL(),
		Redis:           LoadRedisConfig(),
		Cache:           LoadCacheConfig(),
		RateLimit:       LoadRateLimitConfig(),
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, errors.New("DB_PATH must not be blank")
	}
	if cfg.OpsPort != "" && cfg.OpsPort == cfg.Port {
		return Config{}, fmt.Errorf("OPS_PORT must differ from APP_PORT (%s)", cfg.Port)
	}
	return cfg, nil
}

// AMQPURL returns the broker url from AMQP_URL, falling back to RABBITMQ_URL.
// The loader CLI uses it directly since it needs nothing else from Config.
func AMQPURL() string {
	if v := os.Getenv("AMQP_URL"); v != "" {
		return v
	}
	return os.Getenv("RABBITMQ_URL")
}
