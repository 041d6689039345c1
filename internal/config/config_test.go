package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nostrforge/relay/internal/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.Host != "0.0.0.0:8080" {
		t.Errorf("Relay.Host = %q, want default", cfg.Relay.Host)
	}
	if cfg.Storage.Path != "relay.db" {
		t.Errorf("Storage.Path = %q, want default", cfg.Storage.Path)
	}
	if cfg.Limiter.EventsPerSecond != 25 {
		t.Errorf("Limiter.EventsPerSecond = %v, want default 25", cfg.Limiter.EventsPerSecond)
	}
}

func TestLoadHonorsNamedEnvVars(t *testing.T) {
	t.Setenv("RELAY_HOST", "127.0.0.1:9999")
	t.Setenv("RUST_LOG", "debug")
	t.Setenv("DB_PATH", "/tmp/other.db")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.Host != "127.0.0.1:9999" {
		t.Errorf("Relay.Host = %q, want env override", cfg.Relay.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Storage.Path != "/tmp/other.db" {
		t.Errorf("Storage.Path = %q, want /tmp/other.db", cfg.Storage.Path)
	}
}

func TestLoadRejectsInvalidHost(t *testing.T) {
	t.Setenv("RELAY_HOST", "not-a-hostport")
	if _, err := config.Load(""); err == nil {
		t.Errorf("Load should reject a host without a port")
	}
}

func TestLoadMergesUserConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	contents := "storage:\n  PATH: custom.db\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "custom.db" {
		t.Errorf("Storage.Path = %q, want custom.db from merged file", cfg.Storage.Path)
	}
}
