// Package config loads controller configuration from an optional YAML file
// with environment variable overrides on top.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Journal backends.
const (
	JournalMemory = "memory"
	JournalRedis  = "redis"
)

// Redis holds connection settings for the redis journal backend.
type Redis struct {
	Address  string `yaml:"address" env:"NEURO_REDIS_ADDRESS"`
	Password string `yaml:"password" env:"NEURO_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"NEURO_REDIS_DB"`
}

// Config is the full controller configuration.
type Config struct {
	// Address the websocket endpoint listens on.
	Address string `yaml:"address" env:"NEURO_ADDRESS"`

	// TLS certificate pair; both empty means plain websockets.
	TLSCert string `yaml:"tls_cert" env:"NEURO_TLS_CERT"`
	TLSKey  string `yaml:"tls_key" env:"NEURO_TLS_KEY"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"NEURO_LOG_LEVEL"`

	// Journal selects the context journal backend.
	Journal      string `yaml:"journal" env:"NEURO_JOURNAL"`
	JournalDepth int    `yaml:"journal_depth" env:"NEURO_JOURNAL_DEPTH"`

	Redis Redis `yaml:"redis"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Address:      "localhost:8000",
		LogLevel:     "info",
		Journal:      JournalMemory,
		JournalDepth: 256,
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Config file is optional.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Journal {
	case JournalMemory, JournalRedis:
	default:
		return fmt.Errorf("unknown journal backend %q", c.Journal)
	}
	if c.JournalDepth < 1 {
		return fmt.Errorf("journal_depth must be positive, got %d", c.JournalDepth)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.Journal == JournalRedis && c.Redis.Address == "" {
		return fmt.Errorf("redis journal requires redis.address")
	}
	return nil
}
