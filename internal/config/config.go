package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HydroCronURL string
	StatsURL     string
	NodeGeomURL  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchTimeout    time.Duration
	CachePath       string // empty means in-memory cache only
	CacheTTL        time.Duration
	CacheMaxEntries int

	CohortTolerance time.Duration
	NodeConcurrency int
}

// Load reads configuration from environment variables (optionally a .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cohortTolerance, err := parseDuration("COHORT_TOLERANCE", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HydroCronURL: envOrDefault("HYDROCRON_URL", "https://soto.podaac.earthdatacloud.nasa.gov/hydrocron/v1/timeseries"),
		StatsURL:     os.Getenv("STATS_URL"),
		NodeGeomURL:  os.Getenv("NODEGEOM_URL"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FetchTimeout:    fetchTimeout,
		CachePath:       os.Getenv("CACHE_PATH"),
		CacheTTL:        cacheTTL,
		CacheMaxEntries: parseIntOrDefault("CACHE_MAX_ENTRIES", 500),

		CohortTolerance: cohortTolerance,
		NodeConcurrency: parseIntOrDefault("NODE_CONCURRENCY", 8),
	}

	if cfg.HydroCronURL == "" {
		return nil, errors.New("HYDROCRON_URL is required")
	}
	if cfg.CacheMaxEntries <= 0 {
		return nil, errors.New("CACHE_MAX_ENTRIES must be positive")
	}
	if cfg.NodeConcurrency <= 0 {
		return nil, errors.New("NODE_CONCURRENCY must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseIntOrDefault(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
