// Package config loads the static server configuration file. Runtime
// tunables live in the settings table instead; this file only carries what
// is needed before the database is reachable.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no path is supplied.
const DefaultConfigPath = "config.yaml"

// Config is the top-level server configuration.
type Config struct {
	Listen   string       `yaml:"listen"`
	Database DatabaseConf `yaml:"database"`
	Redis    RedisConf    `yaml:"redis"`
	JWT      JWTConf      `yaml:"jwt"`
	Log      LogConf      `yaml:"log"`
}

// DatabaseConf holds the database connection settings.
type DatabaseConf struct {
	DSN string `yaml:"dsn"`
}

// RedisConf holds the optional Redis connection settings.
type RedisConf struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConf holds admin token signing settings.
type JWTConf struct {
	Secret        string        `yaml:"secret"`
	Expiry        time.Duration `yaml:"-"`
	ExpiryMinutes int           `yaml:"expiry_minutes"`
}

// LogConf holds log output settings.
type LogConf struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads the configuration file and applies defaults. The database DSN
// may be overridden with the CREDITD_DATABASE_DSN environment variable.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{}
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
		// Missing file is fine as long as the DSN comes from the environment.
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	if env := strings.TrimSpace(os.Getenv("CREDITD_DATABASE_DSN")); env != "" {
		cfg.Database.DSN = env
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn is required")
	}

	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = ":8085"
	}
	if cfg.JWT.ExpiryMinutes <= 0 {
		cfg.JWT.ExpiryMinutes = 12 * 60
	}
	cfg.JWT.Expiry = time.Duration(cfg.JWT.ExpiryMinutes) * time.Minute
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}
