package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	CatalogPath string `env:"CATALOG_PATH"`
	AssetsDir   string `env:"ASSETS_DIR" envDefault:"assets"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Debug       bool   `env:"DEBUG"`
	SSEBuffer   int    `env:"SSE_BUFFER" envDefault:"8"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SSEBuffer < 1 {
		return cfg, fmt.Errorf("SSE_BUFFER must be positive, got %d", cfg.SSEBuffer)
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Level returns the charmbracelet log level. DEBUG overrides LOG_LEVEL.
func (c Config) Level() (log.Level, error) {
	if c.Debug {
		return log.DebugLevel, nil
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
