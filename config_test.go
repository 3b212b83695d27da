package xwin

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xwin.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Fatalf("expected 800x600, got %dx%d", cfg.Width, cfg.Height)
	}
	if !cfg.Visible {
		t.Fatalf("default window should be visible")
	}
	if cfg.Monitor != nil {
		t.Fatalf("default window should not be fullscreen")
	}
	if cfg.Title != "xwin" {
		t.Fatalf("unexpected default title %q", cfg.Title)
	}
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, "width: 1280\ntitle: demo\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Width != 1280 {
		t.Fatalf("width not applied: %d", cfg.Width)
	}
	if cfg.Height != 600 {
		t.Fatalf("absent height lost its default: %d", cfg.Height)
	}
	if cfg.Title != "demo" {
		t.Fatalf("title not applied: %q", cfg.Title)
	}
}

func TestLoadConfig_ZeroDimensionsFallBack(t *testing.T) {
	path := writeConfig(t, "width: 0\nheight: 0\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Fatalf("expected 800x600 fallback, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestLoadConfig_Monitor(t *testing.T) {
	path := writeConfig(t, "monitor: 1\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Monitor == nil || *cfg.Monitor != 1 {
		t.Fatalf("monitor not applied: %v", cfg.Monitor)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "width: [not a number\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected error for malformed config")
	}
}
