package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Upstream World Bank API
	WBBaseURL    string
	FetchTimeout time.Duration
	WBPerPage    int

	// Serving
	GatewayAddr string
	MetricsAddr string

	// Cache
	CacheBackend string // "memory" or "redis"
	CacheTTL     time.Duration
	RedisAddr    string
	RedisPass    string
	RedisDB      int

	// Dashboard defaults
	HomeCountry         string
	ComparisonCountries []string

	// Live refresh
	RefreshInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		WBBaseURL:    getEnv("WB_BASE_URL", "https://api.worldbank.org/v2"),
		FetchTimeout: secondsEnv("FETCH_TIMEOUT_SEC", 10),
		WBPerPage:    intEnv("WB_PER_PAGE", 500),

		GatewayAddr: getEnv("GATEWAY_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		CacheBackend: getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:     secondsEnv("CACHE_TTL_SEC", 3600),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:      intEnv("REDIS_DB", 0),

		HomeCountry:         getEnv("HOME_COUNTRY", "NGA"),
		ComparisonCountries: parseCodes(getEnv("COMPARISON_COUNTRIES", "NGA,ZAF,EGY,KEN,GHA,ETH")),

		RefreshInterval: secondsEnv("REFRESH_INTERVAL_SEC", 3600),
	}
}

// parseCodes parses a comma-separated ISO3 list, dropping malformed entries.
func parseCodes(s string) []string {
	parts := strings.Split(s, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if len(p) != 3 {
			if p != "" {
				log.Printf("[config] skipping invalid country code: %q", p)
			}
			continue
		}
		codes = append(codes, p)
	}
	return codes
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func secondsEnv(key string, fallback int) time.Duration {
	return time.Duration(intEnv(key, fallback)) * time.Second
}
