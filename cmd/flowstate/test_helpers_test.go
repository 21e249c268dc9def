package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"flowstate/internal/api"
	"flowstate/internal/config"
	"flowstate/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	testsupport.SeedWorkflow(t, cfg, "feature-delivery.yaml", testsupport.ThreeStageYAML)
	testsupport.SeedWorkflow(t, cfg, "bugfix.yaml", testsupport.BranchingYAML)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// runCLIJSON runs a command with --json and decodes the envelope.
func runCLIJSON(t *testing.T, configPath string, args ...string) (api.Result, error) {
	t.Helper()
	out, _, err := runCLI(t, configPath, append(args, "--json")...)
	var res api.Result
	if out != "" {
		if decodeErr := json.Unmarshal([]byte(out), &res); decodeErr != nil {
			t.Fatalf("decode envelope from %q: %v", out, decodeErr)
		}
	}
	return res, err
}

func mustCreateSession(t *testing.T, configPath, workflowID string) string {
	t.Helper()
	res, err := runCLIJSON(t, configPath, "session", "create", workflowID)
	if err != nil {
		t.Fatalf("session create: %v", err)
	}
	if res.Session == nil || res.Session.ID == "" {
		t.Fatalf("expected created session in envelope, got %+v", res)
	}
	return res.Session.ID
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
