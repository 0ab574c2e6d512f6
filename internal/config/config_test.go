package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	os.Unsetenv("CATCHFLOW_WORKDIR")
	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error: workDir is required and unset")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "nWorkers: 4\nworkDir: " + dir + "\nkeepOriginalOutputs: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NWorkers != 4 {
		t.Errorf("expected nWorkers=4, got %d", cfg.NWorkers)
	}
	if !cfg.KeepOriginalOutputs {
		t.Errorf("expected keepOriginalOutputs=true")
	}
	if cfg.DeleteUpstreamFluxFiles != true {
		t.Errorf("expected default deleteUpstreamFluxFiles=true, got %v", cfg.DeleteUpstreamFluxFiles)
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	c := Config{NWorkers: 0, WorkDir: "/tmp/x"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for nWorkers=0")
	}
}

func TestValidateRejectsWhitespaceWorkDir(t *testing.T) {
	c := Config{NWorkers: 1, WorkDir: "/tmp/has space"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for whitespace in workDir")
	}
}
