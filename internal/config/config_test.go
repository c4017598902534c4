package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.LogLevel = "loud"
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	msg := err.Error()
	for _, want := range []string{"unknown mode", "unknown log_level", "port"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %q, got:\n%s", want, msg)
		}
	}
}

func TestValidateExportNeedsBucket(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "export"
	cfg.S3.Bucket = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("export without bucket should fail, got %v", err)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	toml := `
mode = "full"

[server]
port = 9090

[pricing]
cache_ttl = "2m"
`
	if err := os.WriteFile(path, []byte(toml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MARKETINTEL_SERVER_PORT", "7070")
	t.Setenv("MARKETINTEL_REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "full" {
		t.Errorf("mode = %s, want full (from file)", cfg.Mode)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070 (env wins over file)", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %s, want env override", cfg.Redis.Addr)
	}
	if cfg.Pricing.CacheTTL.Duration != 2*time.Minute {
		t.Errorf("cache_ttl = %s, want 2m", cfg.Pricing.CacheTTL.Duration)
	}
	// Untouched fields keep their defaults.
	if cfg.Pricing.HistoryWindow != 90 {
		t.Errorf("history_window = %d, want default 90", cfg.Pricing.HistoryWindow)
	}
}
