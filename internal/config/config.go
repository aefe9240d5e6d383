// Package config loads harness settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds afl-showmap configuration.
type Config struct {
	// MapSize is the trace bitmap size in bytes.
	MapSize int `envconfig:"AFL_MAP_SIZE" default:"65536"`
	// Timeout bounds a single target run. Zero means no limit.
	Timeout time.Duration `envconfig:"AFL_TIMEOUT" default:"0s"`
	Debug   bool          `envconfig:"AFL_DEBUG" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.MapSize <= 0 {
		return nil, fmt.Errorf("AFL_MAP_SIZE must be positive, got %d", cfg.MapSize)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("AFL_TIMEOUT must not be negative, got %s", cfg.Timeout)
	}
	return &cfg, nil
}
