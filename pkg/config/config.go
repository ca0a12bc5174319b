// Package config loads application configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"3000"`
}

// RateSourceConfig controls the upstream rate service client.
type RateSourceConfig struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"https://api.frankfurter.app"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

// StoreConfig selects and configures the local store backend. Backend is one
// of "memory", "redis" or "postgres".
type StoreConfig struct {
	Backend     string `envconfig:"BACKEND" default:"memory"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	KeyPrefix   string `envconfig:"KEY_PREFIX" default:"fxp:"`
}

// RefreshConfig controls the auto-refresh timer.
type RefreshConfig struct {
	Interval time.Duration `envconfig:"INTERVAL" default:"60s"`
}

// AppConfig is the root configuration object, threaded explicitly to every
// consumer rather than read as ambient global state.
type AppConfig struct {
	Env     string           `envconfig:"APP_ENV" default:"development"`
	Server  ServerConfig     `envconfig:"SERVER"`
	Source  RateSourceConfig `envconfig:"RATE_SOURCE"`
	Store   StoreConfig      `envconfig:"STORE"`
	Refresh RefreshConfig    `envconfig:"REFRESH"`
}

// Load reads configuration from the environment. When envFilePath is given,
// that .env file is loaded first; a missing file is not an error.
func Load(logger *slog.Logger, envFilePath ...string) (*AppConfig, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("No .env file found or specified, using system environment variables")
	} else {
		logger.Info("Environment variables loaded from .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	logger.Info("App config loaded",
		"env", cfg.Env,
		"store_backend", cfg.Store.Backend,
		"rate_source_url", cfg.Source.BaseURL,
		"rate_source_timeout", cfg.Source.HTTPTimeout,
		"refresh_interval", cfg.Refresh.Interval,
	)
	return &cfg, nil
}
