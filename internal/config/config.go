// Package config loads the hosting node's process configuration from the
// environment, with optional .env support for local development.
package config

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full node configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Deploy  DeployConfig
}

// ServerConfig configures the introspection HTTP server.
type ServerConfig struct {
	Host      string  `env:"SERVER_HOST,default=0.0.0.0"`
	Port      int     `env:"SERVER_PORT,default=8080"`
	RateLimit float64 `env:"SERVER_RATE_LIMIT,default=50"`
	RateBurst int     `env:"SERVER_RATE_BURST,default=100"`
}

// LoggingConfig configures process logging.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info"`
	Format     string `env:"LOG_FORMAT,default=text"`
	Output     string `env:"LOG_OUTPUT,default=stderr"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=host_runtime"`
}

// DeployConfig describes the version deployed at startup. Both fields are
// optional; a node can start empty and be driven by later deploy events.
type DeployConfig struct {
	ManifestPath  string `env:"DEPLOY_MANIFEST,default="`
	RootDirectory string `env:"DEPLOY_ROOT,default="`
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	return &cfg, nil
}
