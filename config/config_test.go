package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Screen.Width != 80 || cfg.Screen.Height != 24 {
		t.Errorf("unexpected default screen size: %+v", cfg.Screen)
	}
	if cfg.RNG.Seed != 0 {
		t.Errorf("expected default RNG seed 0, got %d", cfg.RNG.Seed)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zvm.toml")
	contents := `
[screen]
width = 100

[rng]
seed = 42
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected Load error: %v", err)
	}
	if cfg.Screen.Width != 100 {
		t.Errorf("expected overridden width 100, got %d", cfg.Screen.Width)
	}
	if cfg.Screen.Height != 24 {
		t.Errorf("expected default height 24 to survive, got %d", cfg.Screen.Height)
	}
	if cfg.RNG.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.RNG.Seed)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("expected an error loading a missing config file")
	}
}
