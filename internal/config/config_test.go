package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a scratch directory so no stray config.yaml is picked up.
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("server.port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Model.Name != "gpt-4o-mini" {
		t.Errorf("model.name = %q", cfg.Model.Name)
	}
	if cfg.Agent.MaxRounds != 5 {
		t.Errorf("agent.max_rounds = %d, want 5", cfg.Agent.MaxRounds)
	}
	if cfg.Server.RequestTimeout != 120 {
		t.Errorf("server.request_timeout = %d, want 120", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.Path != "./data/usage.db" {
		t.Errorf("storage.path = %q", cfg.Storage.Path)
	}
	if got, want := cfg.Addr(), "0.0.0.0:8000"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte(`
server:
  port: 9090
model:
  name: gpt-4o
agent:
  max_rounds: 3
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Model.Name != "gpt-4o" {
		t.Errorf("model.name = %q, want gpt-4o", cfg.Model.Name)
	}
	if cfg.Agent.MaxRounds != 3 {
		t.Errorf("agent.max_rounds = %d, want 3", cfg.Agent.MaxRounds)
	}
	// Untouched keys keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WEBAGENT_SERVER_PORT", "7777")
	t.Setenv("WEBAGENT_AGENT_MAX_ROUNDS", "2")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("server.port = %d, want 7777", cfg.Server.Port)
	}
	if cfg.Agent.MaxRounds != 2 {
		t.Errorf("agent.max_rounds = %d, want 2", cfg.Agent.MaxRounds)
	}
	if cfg.Model.APIKey != "sk-test" {
		t.Errorf("model.api_key = %q, want value of OPENAI_API_KEY", cfg.Model.APIKey)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
