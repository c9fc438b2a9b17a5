package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: shareit-test
database:
  path: "${SHAREIT_TEST_DB}"
server:
  port: 9191
gateway:
  port: 8181
  timeout: 3s
cache:
  user_ttl: 2m
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	t.Setenv("SHAREIT_TEST_DB", "data/test.db")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "data/test.db" {
		t.Errorf("expected expanded database path, got %q", cfg.Database.Path)
	}
	if cfg.Gateway.Timeout != 3*time.Second {
		t.Errorf("expected gateway timeout 3s, got %s", cfg.Gateway.Timeout)
	}
	if cfg.Cache.UserTTL != 2*time.Minute {
		t.Errorf("expected user ttl 2m, got %s", cfg.Cache.UserTTL)
	}
	if cfg.Gateway.ServerURL != "http://localhost:9191" {
		t.Errorf("expected server url derived from server port, got %s", cfg.Gateway.ServerURL)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("database: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed yaml")
	}

	if err := os.WriteFile(configPath, []byte("app:\n  name: x\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected validation error for missing database path")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		cfg := Config{Database: DatabaseConfig{Path: "path"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "relative server url", mutate: func(c *Config) { c.Gateway.ServerURL = "localhost:9090" }, wantErr: true},
		{name: "port collision", mutate: func(c *Config) { c.Gateway.Port = c.Server.Port }, wantErr: true},
		{name: "negative rps", mutate: func(c *Config) { c.Server.RateLimit.RPS = -1 }, wantErr: true},
		{name: "negative gateway limit", mutate: func(c *Config) { c.Gateway.RequestsPerMinute = -5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()

	if cfg.Server.Port != 9090 {
		t.Errorf("expected default server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Gateway.Port != 8080 {
		t.Errorf("expected default gateway port 8080, got %d", cfg.Gateway.Port)
	}
	if cfg.Monitoring.PrometheusPort != 9100 {
		t.Errorf("expected default prometheus port 9100, got %d", cfg.Monitoring.PrometheusPort)
	}
	if cfg.Gateway.MetricsPort != 9101 {
		t.Errorf("expected gateway metrics port 9101, got %d", cfg.Gateway.MetricsPort)
	}
	if cfg.Broker.Queue != "shareit.bookings" {
		t.Errorf("expected default queue, got %s", cfg.Broker.Queue)
	}
	if cfg.Gateway.Retry.MaxRetries != 2 {
		t.Errorf("expected 2 gateway retries, got %d", cfg.Gateway.Retry.MaxRetries)
	}
}
