package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a config file and points HEATBRIDGE_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("HEATBRIDGE_CONFIG", configPath)
}

// TestRun_InvalidConfigPath verifies run fails when the config file is missing.
func TestRun_InvalidConfigPath(t *testing.T) {
	t.Setenv("HEATBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidConfig verifies run fails config validation before
// touching any external service.
func TestRun_InvalidConfig(t *testing.T) {
	// No zones and no UH1 endpoint: validation must reject this.
	writeConfig(t, `
bridge:
  id: test

logging:
  level: error
  format: text
  output: stdout
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail validation with no zones configured")
	}
	if !strings.Contains(err.Error(), "validating config") {
		t.Errorf("run() error = %v, want a config validation error", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("HEATBRIDGE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("HEATBRIDGE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
