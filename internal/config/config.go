// Package config loads process configuration, grounded on
// event-service/internal/config: typed fields, getEnv/getDuration/
// getIntEnv helpers loaded via godotenv, fail-fast validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTravelDurationMs is the named constant spec §9 asks to be
// surfaced in exactly one place.
const DefaultTravelDurationMs int64 = 60_000

// MaxBudgetLocations bounds the number of stubs a single
// BatchGenerate invocation may create (spec §4.3, §4.4).
const MaxBudgetLocations = 12

type Config struct {
	AppEnv string

	HTTPAddr    string
	DatabaseURL string

	RabbitURL      string
	RabbitExchange string

	RedisURL     string
	LayerCacheTTL time.Duration

	JWTSecret string

	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	StarterLocationID string
	RealmTablePath    string
	TerrainTablePath  string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8090")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "world.events")

	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	cfg.LayerCacheTTL = getDuration("LAYER_CACHE_TTL", 30*time.Second)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	cfg.RLEnabled = getEnv("RL_ENABLED", "true") == "true"
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 60)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.CORSAllowedOrigins = getCSVEnv("CORS_ALLOWED_ORIGINS", []string{"*"})

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.StarterLocationID = getEnv("STARTER_LOCATION_ID", "00000000-0000-0000-0000-000000000001")
	cfg.RealmTablePath = getEnv("REALM_INFERENCE_TABLE_PATH", "")
	cfg.TerrainTablePath = getEnv("TERRAIN_TABLE_PATH", "")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	if cfg.AppEnv != "dev" && cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing RABBIT_URL (required when APP_ENV != dev)")
	}
	if cfg.AppEnv != "dev" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET (required when APP_ENV != dev)")
	}

	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getCSVEnv(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
