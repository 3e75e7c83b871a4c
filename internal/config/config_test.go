package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("Expected default request timeout 60s, got %s", cfg.RequestTimeout)
	}
	if cfg.CacheCapacity != 256 {
		t.Errorf("Expected default cache capacity 256, got %d", cfg.CacheCapacity)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("Expected default cache TTL 1h, got %s", cfg.CacheTTL)
	}
	if cfg.LocalConcurrency != 4 {
		t.Errorf("Expected default local concurrency 4, got %d", cfg.LocalConcurrency)
	}
	if cfg.MaxStylesPerRequest != 8 {
		t.Errorf("Expected default style limit 8, got %d", cfg.MaxStylesPerRequest)
	}
	if cfg.AzureConfigured() {
		t.Error("Expected Azure to be unconfigured by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REMOTE_ENDPOINT", "https://styles.example.com/v1/generate")
	t.Setenv("REMOTE_TIMEOUT", "10s")
	t.Setenv("CACHE_CAPACITY", "32")
	t.Setenv("CACHE_MAX_BYTES", "1048576")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.RemoteEndpoint != "https://styles.example.com/v1/generate" {
		t.Errorf("Unexpected remote endpoint: %s", cfg.RemoteEndpoint)
	}
	if cfg.RemoteTimeout != 10*time.Second {
		t.Errorf("Expected remote timeout 10s, got %s", cfg.RemoteTimeout)
	}
	if cfg.CacheCapacity != 32 {
		t.Errorf("Expected cache capacity 32, got %d", cfg.CacheCapacity)
	}
	if cfg.CacheMaxBytes != 1048576 {
		t.Errorf("Expected cache byte bound 1MiB, got %d", cfg.CacheMaxBytes)
	}
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	tests := []string{"abc", "0", "70000", "-1"}
	for _, port := range tests {
		t.Run(port, func(t *testing.T) {
			t.Setenv("PORT", port)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected error for PORT=%q", port)
			}
		})
	}
}

func TestLoadFromEnv_InvalidCacheCapacity(t *testing.T) {
	t.Setenv("CACHE_CAPACITY", "-5")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for negative cache capacity")
	}
}

func TestLoadFromEnv_MalformedDurationFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("Expected fallback to default 60s, got %s", cfg.RequestTimeout)
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 0.0.0.0 ", Port: " 8080 "}
	if got := cfg.ServerAddress(); got != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", got)
	}
}

func TestAzureConfigured(t *testing.T) {
	cfg := &Config{AzureStorageAccount: "acct"}
	if cfg.AzureConfigured() {
		t.Error("Expected unconfigured without a key")
	}
	cfg.AzureStorageKey = "key"
	if !cfg.AzureConfigured() {
		t.Error("Expected configured with account and key")
	}
}
