package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Input image fetching
	ImageFetchTimeout time.Duration

	// Remote generation service
	RemoteEndpoint string
	RemoteAPIKey   string
	RemoteTimeout  time.Duration

	// Preview cache
	CacheCapacity int
	CacheMaxBytes int64
	CacheTTL      time.Duration

	// Local inference
	LocalConcurrency int

	// Request limits
	MaxStylesPerRequest int

	// Condition sampling
	NetworkProbeURL string

	// Artifact storage (Azure blob; in-memory store is used when unset)
	AzureStorageAccount    string
	AzureStorageKey        string
	AzureArtifactContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureConfigured reports whether artifact storage credentials are present
func (c *Config) AzureConfigured() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB

		ImageFetchTimeout: parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),

		RemoteEndpoint: getEnvOrDefault("REMOTE_ENDPOINT", ""),
		RemoteAPIKey:   getEnvOrDefault("REMOTE_API_KEY", ""),
		RemoteTimeout:  parseDurationOrDefault("REMOTE_TIMEOUT", 30*time.Second),

		CacheCapacity: int(parseIntOrDefault("CACHE_CAPACITY", 256)),
		CacheMaxBytes: parseIntOrDefault("CACHE_MAX_BYTES", 0), // 0 disables the byte bound
		CacheTTL:      parseDurationOrDefault("CACHE_TTL", time.Hour),

		LocalConcurrency: int(parseIntOrDefault("LOCAL_CONCURRENCY", 4)),

		MaxStylesPerRequest: int(parseIntOrDefault("MAX_STYLES_PER_REQUEST", 8)),

		NetworkProbeURL: getEnvOrDefault("NETWORK_PROBE_URL", ""),

		AzureStorageAccount:    getEnvOrDefault("AZURE_STORAGE_ACCOUNT", ""),
		AzureStorageKey:        getEnvOrDefault("AZURE_STORAGE_KEY", ""),
		AzureArtifactContainer: getEnvOrDefault("AZURE_ARTIFACT_CONTAINER", "artifacts"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.RemoteTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, remote=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.RemoteTimeout)
	}
	if cfg.CacheCapacity <= 0 {
		return nil, fmt.Errorf("CACHE_CAPACITY must be > 0 (got %d)", cfg.CacheCapacity)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be > 0 (got %s)", cfg.CacheTTL)
	}
	if cfg.LocalConcurrency <= 0 {
		return nil, fmt.Errorf("LOCAL_CONCURRENCY must be > 0 (got %d)", cfg.LocalConcurrency)
	}
	if cfg.MaxStylesPerRequest <= 0 {
		return nil, fmt.Errorf("MAX_STYLES_PER_REQUEST must be > 0 (got %d)", cfg.MaxStylesPerRequest)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
