package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with an explicit config path
// that does not exist.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidConfigContents verifies run fails when the config file
// fails validation.
func TestRun_InvalidConfigContents(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
storage:
  busy_timeout: -1

logging:
  level: info
  format: text
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("GRAYBRIDGE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid busy_timeout")
	}
}

// TestLoadConfig_Default verifies the default path is used without the
// environment override, and that a missing default file still yields a
// usable config.
func TestLoadConfig_Default(t *testing.T) {
	t.Setenv("GRAYBRIDGE_CONFIG", "")

	cfg, path, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if path != defaultConfigPath {
		t.Errorf("loadConfig() path = %q, want %q", path, defaultConfigPath)
	}
	if cfg.API.Port == 0 {
		t.Error("loadConfig() returned config without API port default")
	}
}

// TestLoadConfig_EnvOverride verifies the environment variable selects the
// config file.
func TestLoadConfig_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
api:
  host: "127.0.0.1"
  port: 9999
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("GRAYBRIDGE_CONFIG", configPath)

	cfg, path, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if path != configPath {
		t.Errorf("loadConfig() path = %q, want %q", path, configPath)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("loadConfig() API port = %d, want 9999", cfg.API.Port)
	}
}
