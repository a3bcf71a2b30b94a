// Package config loads the HTTP listen address, storage backend, and
// request timeout from the environment, following the env-var-with-default
// idiom used across this codebase's services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StorageConfig selects and configures the block storage backend.
type StorageConfig struct {
	Backend string `json:"backend"` // "local" or "s3"
	Local   LocalFSConfig `json:"local_fs"`
	S3      S3Config      `json:"s3"`
}

// LocalFSConfig configures the local filesystem storage backend.
type LocalFSConfig struct {
	BasePath string `json:"base_path"`
}

// S3Config configures the S3 storage backend.
type S3Config struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Prefix string `json:"prefix"`
}

// Config is the complete runtime configuration for the meltd server.
type Config struct {
	ListenAddr     string        `json:"listen_addr"`
	RequestTimeout time.Duration `json:"request_timeout"`
	Storage        StorageConfig `json:"storage"`
}

// Load builds a Config from environment variables, falling back to
// defaults suitable for local development.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     getEnvString("MELT_LISTEN_ADDR", ":8080"),
		RequestTimeout: getEnvDuration("MELT_REQUEST_TIMEOUT", 30*time.Second),
		Storage: StorageConfig{
			Backend: getEnvString("MELT_STORAGE_BACKEND", "local"),
			Local: LocalFSConfig{
				BasePath: getEnvString("MELT_STORAGE_LOCAL_PATH", "./data"),
			},
			S3: S3Config{
				Bucket: getEnvString("MELT_STORAGE_S3_BUCKET", ""),
				Region: getEnvString("MELT_STORAGE_S3_REGION", "us-east-1"),
				Prefix: getEnvString("MELT_STORAGE_S3_PREFIX", ""),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Storage.Backend != "local" && c.Storage.Backend != "s3" {
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3 storage backend requires MELT_STORAGE_S3_BUCKET")
	}
	return nil
}

// String returns a pretty-printed JSON representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
