package config

import (
	"time"

	"github.com/handlescope/handlescope/internal/core/engine"
	"github.com/handlescope/handlescope/internal/core/store"
)

// Config represents the complete application configuration. Values come
// from three layers: built-in defaults, an optional YAML config file, and
// HANDLESCOPE_* environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   store.Config  `mapstructure:"store"`
	Checks  engine.Config `mapstructure:"checks"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether /metrics is exposed on the main HTTP port
	Enabled bool `mapstructure:"enabled"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}
