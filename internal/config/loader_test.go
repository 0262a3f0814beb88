package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}

	def := Default()
	if cfg.Addr != def.Addr || cfg.ReadHeaderTimeout != def.ReadHeaderTimeout || cfg.MaxContentLength != def.MaxContentLength {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected 24h jwt ttl, got %v", cfg.JWTTTL)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":7000\"\nlog_level: debug\nsend_rate_limit: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Env beats the file.
	t.Setenv("WIRECHAT_ADDR", ":9000")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("expected env addr :9000, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level from file, got %s", cfg.LogLevel)
	}
	if cfg.SendRateLimit != 5 {
		t.Fatalf("expected rate limit from file, got %d", cfg.SendRateLimit)
	}
	if cfg.DatabaseDriver != DriverSQLite {
		t.Fatalf("expected default driver, got %s", cfg.DatabaseDriver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, true},
		{"postgres without url", func(c *Config) { c.DatabaseDriver = DriverPostgres }, true},
		{"postgres with url", func(c *Config) {
			c.DatabaseDriver = DriverPostgres
			c.DatabaseURL = "postgres://localhost/wirechat"
		}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero content length", func(c *Config) { c.MaxContentLength = 0 }, true},
		{"negative rate limit", func(c *Config) { c.SendRateLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "warn"})

	if cfg.Addr != ":1234" || cfg.LogLevel != "warn" {
		t.Fatalf("expected overrides to apply, got %+v", cfg)
	}
	if cfg.DatabasePath != Default().DatabasePath {
		t.Fatalf("expected zero values to be ignored, got %s", cfg.DatabasePath)
	}
}
