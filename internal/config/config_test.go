package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowstate/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatalf("expected missing file, got exists for %s", path)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.StatusSync.MaxAttempts != 5 || cfg.StatusSync.RetryBackoff != 2 {
		t.Fatalf("unexpected sync defaults: %+v", cfg.StatusSync)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
workflows_dir = "` + filepath.Join(dir, "workflows") + `"

[logging]
format = "JSON"
level = ""

[status_sync]
endpoint = "  https://tracker.example/api  "
request_timeout = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default level, got %q", cfg.Logging.Level)
	}
	if cfg.StatusSync.Endpoint != "https://tracker.example/api" {
		t.Fatalf("expected trimmed endpoint, got %q", cfg.StatusSync.Endpoint)
	}
	if cfg.StatusSync.RequestTimeout != 10 {
		t.Fatalf("expected default timeout, got %d", cfg.StatusSync.RequestTimeout)
	}
}

func TestValidateRejectsBadEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.StatusSync.Endpoint = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for malformed endpoint")
	}
	cfg.StatusSync.Endpoint = "ftp://tracker.example"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported scheme")
	}
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for log format")
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.WorkflowsDir = filepath.Join(dir, "workflows")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, d := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.WorkflowsDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", d, err)
		}
	}
	if got := cfg.DatabasePath(); got != filepath.Join(cfg.Paths.DataDir, "sessions.db") {
		t.Fatalf("unexpected database path: %s", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	written, err := config.WriteSample(path)
	if err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[status_sync]") {
		t.Fatal("expected sample config to include status_sync section")
	}
	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
