// Package config loads the relay.yaml runtime configuration: pool sizing,
// connect retry policy, and the log level.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pool holds the connection pool and retry policy.
type Pool struct {
	MaxConnections int    `yaml:"max_connections"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryInterval  string `yaml:"retry_interval"` // Go duration string, e.g. "500ms"
}

// Config is the full runtime configuration.
type Config struct {
	Pool     Pool   `yaml:"pool"`
	LogLevel string `yaml:"log_level"` // "debug" | "info" | "warn" | "error"
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Pool: Pool{
			MaxConnections: 4,
			MaxRetries:     3,
			RetryInterval:  "500ms",
		},
		LogLevel: "info",
	}
}

// Load reads and validates a YAML config file. Fields omitted from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.RetryInterval(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RetryInterval parses the pool retry interval.
func (c Config) RetryInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Pool.RetryInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid retry_interval %q: %w", c.Pool.RetryInterval, err)
	}
	return d, nil
}
