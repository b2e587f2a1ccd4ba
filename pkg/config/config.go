package config

import (
	"os"
	"strconv"
	"time"
)

// Config aggregates all service configuration, loaded once at process start.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Mail    MailConfig
	Bulk    BulkConfig
}

// Load builds the full configuration from environment variables.
func Load() *Config {
	return &Config{
		Server:  loadServerConfig(),
		Storage: loadStorageConfig(),
		Mail:    loadMailConfig(),
		Bulk:    loadBulkConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
