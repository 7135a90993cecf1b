package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/nao1215/leakwatch/internal/config"
)

// executeRoot runs the root command with args and returns what it printed
// to stdout.
func executeRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

// newTestConfig writes a configuration whose state lives under a temporary
// directory and returns its path.
func newTestConfig(t *testing.T, modify func(*config.Config)) string {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.ReportsDir = filepath.Join(dir, "reports")
	cfg.KeyFile = filepath.Join(dir, "encryption.key")
	cfg.DatabaseDir = filepath.Join(dir, "db")
	cfg.LogFile = filepath.Join(dir, "logs", "leakwatch.log")
	if modify != nil {
		modify(cfg)
	}

	path := filepath.Join(dir, "config.json")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	return path
}

func loadTestConfig(t *testing.T, path string) *config.Config {
	t.Helper()
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
