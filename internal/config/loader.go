package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETINTEL_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETINTEL_* environment variables
// and overwrites the corresponding Config fields when a variable is set.
// This lets operators inject secrets at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "MARKETINTEL_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "MARKETINTEL_DATABASE_HOST")
	setInt(&cfg.Database.Port, "MARKETINTEL_DATABASE_PORT")
	setStr(&cfg.Database.Database, "MARKETINTEL_DATABASE_NAME")
	setStr(&cfg.Database.User, "MARKETINTEL_DATABASE_USER")
	setStr(&cfg.Database.Password, "MARKETINTEL_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "MARKETINTEL_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "MARKETINTEL_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "MARKETINTEL_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "MARKETINTEL_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETINTEL_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETINTEL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETINTEL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETINTEL_REDIS_DB")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETINTEL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETINTEL_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETINTEL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETINTEL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETINTEL_S3_SECRET_KEY")

	// ── Server ──
	setInt(&cfg.Server.Port, "MARKETINTEL_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "MARKETINTEL_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETINTEL_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "MARKETINTEL_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MARKETINTEL_SERVER_RATE_WINDOW")
	setDuration(&cfg.Server.ShutdownTimeout, "MARKETINTEL_SERVER_SHUTDOWN_TIMEOUT")

	// ── Pricing ──
	setInt(&cfg.Pricing.HistoryWindow, "MARKETINTEL_PRICING_HISTORY_WINDOW")
	setDuration(&cfg.Pricing.CacheTTL, "MARKETINTEL_PRICING_CACHE_TTL")
	setDuration(&cfg.Pricing.AnalyticsTTL, "MARKETINTEL_PRICING_ANALYTICS_TTL")

	// ── Export ──
	setDuration(&cfg.Export.Interval, "MARKETINTEL_EXPORT_INTERVAL")
	setDuration(&cfg.Export.MaxAge, "MARKETINTEL_EXPORT_MAX_AGE")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETINTEL_MODE")
	setStr(&cfg.LogLevel, "MARKETINTEL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
