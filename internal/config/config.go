package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerAddr          string   `envconfig:"SERVER_ADDR" default:"localhost:8000"`
	DatabaseDSN         string   `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"`
	AllowedOrigins      []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8000"`
	DefaultHistoryLimit int      `envconfig:"DEFAULT_HISTORY_LIMIT" default:"50"`
	MaxHistoryLimit     int      `envconfig:"MAX_HISTORY_LIMIT" default:"200"`
}

// FromEnv builds a Config from ROOMCAST_* environment variables,
// falling back to defaults for anything unset.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("roomcast", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	if c.DefaultHistoryLimit < 1 {
		return fmt.Errorf("default history limit must be positive")
	}
	if c.MaxHistoryLimit < c.DefaultHistoryLimit {
		return fmt.Errorf("max history limit cannot be lower than the default")
	}
	return nil
}
