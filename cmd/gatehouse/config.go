// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for serve flags.
const (
	defaultHTTPAddr      = "127.0.0.1:8080"
	defaultMetricsAddr   = "127.0.0.1:9100"
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
	defaultLogFormat     = "json"
	defaultLogLevel      = "info"
)

// Config holds runtime configuration for the serve command.
type Config struct {
	HTTP struct {
		Addr string `koanf:"addr"`
	} `koanf:"http"`
	Metrics struct {
		Addr string `koanf:"addr"`
	} `koanf:"metrics"`
	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`
	Redis struct {
		URL string `koanf:"url"`
	} `koanf:"redis"`
	Session struct {
		TTL           time.Duration `koanf:"ttl"`
		SweepInterval time.Duration `koanf:"sweep_interval"`
	} `koanf:"session"`
	Log struct {
		Format string `koanf:"format"`
		Level  string `koanf:"level"`
	} `koanf:"log"`
	AutoMigrate bool `koanf:"auto_migrate"`
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.addr is required")
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (flag, config file or DATABASE_URL)")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be 'json' or 'text', got %q", cfg.Log.Format)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("log.level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}
	if cfg.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.ttl must be positive")
	}
	return nil
}

// LoadConfig merges, in increasing precedence: flag defaults, the YAML
// config file (if any), explicitly set flags, and the DATABASE_URL /
// REDIS_URL environment variables.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	// Unchanged flags fill gaps the file left; changed flags win.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "merge flags").
			Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "unmarshal").
			Wrap(err)
	}

	// Connection secrets prefer the environment over files and flags.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// registerServeFlags declares the serve flags whose names double as
// koanf keys.
func registerServeFlags(flags *pflag.FlagSet) {
	flags.String("http.addr", defaultHTTPAddr, "user API listen address")
	flags.String("metrics.addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("database.url", "", "PostgreSQL connection string")
	flags.String("redis.url", "", "Redis connection string for the session store (empty = in-memory)")
	flags.Duration("session.ttl", defaultSessionTTL, "session lifetime")
	flags.Duration("session.sweep_interval", defaultSweepInterval, "how often expired sessions are swept")
	flags.String("log.format", defaultLogFormat, "log format: json or text")
	flags.String("log.level", defaultLogLevel, "log level: debug, info, warn or error")
	flags.Bool("auto_migrate", false, "apply pending database migrations on startup")
}
