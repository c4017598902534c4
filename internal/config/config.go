// Package config defines the top-level configuration for the market
// intelligence service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETINTEL_* environment
// variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Pricing  PricingConfig  `toml:"pricing"`
	Export   ExportConfig   `toml:"export"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Enabled=false runs the
// service without caches, locks, rate limits or the websocket bus.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// S3Config holds S3-compatible object storage parameters for exports.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            int      `toml:"port"`
	APIKey          string   `toml:"api_key"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimit       int      `toml:"rate_limit"`
	RateWindow      duration `toml:"rate_window"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// PricingConfig tunes the price engine.
type PricingConfig struct {
	HistoryWindow int      `toml:"history_window"`
	CacheTTL      duration `toml:"cache_ttl"`
	AnalyticsTTL  duration `toml:"analytics_ttl"`
}

// ExportConfig tunes the history export job.
type ExportConfig struct {
	Interval duration `toml:"interval"`
	MaxAge   duration `toml:"max_age"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketintel",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
		},
		S3: S3Config{
			Region: "eu-west-1",
			Bucket: "marketintel-exports",
		},
		Server: ServerConfig{
			Port:            8080,
			RateLimit:       120,
			RateWindow:      duration{time.Minute},
			ShutdownTimeout: duration{15 * time.Second},
		},
		Pricing: PricingConfig{
			HistoryWindow: 90,
			CacheTTL:      duration{5 * time.Minute},
			AnalyticsTTL:  duration{10 * time.Minute},
		},
		Export: ExportConfig{
			Interval: duration{24 * time.Hour},
			MaxAge:   duration{0},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"serve":  true,
	"export": true,
	"full":   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for internal consistency and reports
// every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, export, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port %d out of range", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database name must not be empty")
		}
		if c.Database.User == "" {
			errs = append(errs, "database: user must not be empty")
		}
	}
	if c.Database.PoolMaxConns < c.Database.PoolMinConns {
		errs = append(errs, "database: pool_max_conns must be >= pool_min_conns")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when enabled")
	}

	needsS3 := c.Mode == "export" || c.Mode == "full"
	if needsS3 {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket is required for mode "+c.Mode)
		}
		if c.S3.Region == "" && c.S3.Endpoint == "" {
			errs = append(errs, "s3: region or endpoint must be set for mode "+c.Mode)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must not be negative")
	}

	if c.Pricing.HistoryWindow <= 0 {
		errs = append(errs, "pricing: history_window must be positive")
	}

	if c.Mode == "full" && c.Export.Interval.Duration <= 0 {
		errs = append(errs, "export: interval must be positive for mode full")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
