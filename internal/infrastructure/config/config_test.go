package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := applyDefaults(Config{})

	if cfg.Finnhub.BaseURL != "https://finnhub.io/api/v1" {
		t.Errorf("unexpected finnhub base url %s", cfg.Finnhub.BaseURL)
	}
	if cfg.Alerts.Concurrency != 4 || cfg.Alerts.ClaimLease != 15*time.Minute {
		t.Errorf("unexpected alert defaults: %+v", cfg.Alerts)
	}
	if cfg.Mail.FromName != "Signalist" || cfg.Mail.Port != 587 {
		t.Errorf("unexpected mail defaults: %+v", cfg.Mail)
	}
	if cfg.Finnhub.CacheTTL != time.Hour {
		t.Errorf("expected 1h cache ttl, got %v", cfg.Finnhub.CacheTTL)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_FINNHUB_API_KEY", "public-key")
	t.Setenv("NODEMAILER_EMAIL", "bot@example.com")
	t.Setenv("ALERTS_CONCURRENCY", "8")

	cfg := applyEnv(Config{})
	if cfg.Finnhub.APIKey != "public-key" {
		t.Errorf("expected fallback key, got %s", cfg.Finnhub.APIKey)
	}
	if cfg.Mail.Username != "bot@example.com" || cfg.Mail.FromAddress != "bot@example.com" {
		t.Errorf("unexpected mail: %+v", cfg.Mail)
	}
	if cfg.Alerts.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Alerts.Concurrency)
	}

	t.Setenv("FINNHUB_API_KEY", "server-key")
	if cfg := applyEnv(Config{}); cfg.Finnhub.APIKey != "server-key" {
		t.Errorf("expected server key to win, got %s", cfg.Finnhub.APIKey)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  driver: mongo
mongo:
  uri: mongodb://localhost:27017
alerts:
  concurrency: 2
  claim_lease: 5m
schedule:
  price-alerts-daily: "30 13 * * *"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver() != "mongo" {
		t.Errorf("expected mongo driver, got %s", cfg.StorageDriver())
	}
	if cfg.Alerts.Concurrency != 2 || cfg.Alerts.ClaimLease != 5*time.Minute {
		t.Errorf("unexpected alerts config: %+v", cfg.Alerts)
	}
	if cfg.Schedule["price-alerts-daily"] != "30 13 * * *" {
		t.Errorf("unexpected schedule: %v", cfg.Schedule)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err != nil {
		t.Errorf("missing file should fall back to defaults, got %v", err)
	}
}

func TestConfig_StorageDriver(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{}, "memory"},
		{Config{DB: DBConfig{DSN: "postgres://x"}}, "postgres"},
		{Config{Mongo: MongoConfig{URI: "mongodb://x"}}, "mongo"},
		{Config{Storage: StorageConfig{Driver: "memory"}, DB: DBConfig{DSN: "postgres://x"}}, "memory"},
	}
	for _, tc := range cases {
		if got := tc.cfg.StorageDriver(); got != tc.want {
			t.Errorf("expected %s, got %s", tc.want, got)
		}
	}
}
