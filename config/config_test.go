package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
reader:
  name: "ACS ACR122U"
cache:
  use_file_cache: false
  use_pin_cache: true
  pin_cache_counter: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reader.Name != "ACS ACR122U" {
		t.Fatalf("reader name = %q", cfg.Reader.Name)
	}
	if cfg.UseFileCache() {
		t.Fatal("expected file cache disabled")
	}
	if !cfg.UsePinCache() {
		t.Fatal("expected pin cache enabled")
	}
	if cfg.PinCacheCounter() != 5 {
		t.Fatalf("pin cache counter = %d", cfg.PinCacheCounter())
	}
}

func TestLoadEmptyConfigUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UseFileCache() || !cfg.UsePinCache() {
		t.Fatal("expected defaults to enable both caches")
	}
	if cfg.PinCacheCounter() != defaultPinCacheCounter {
		t.Fatalf("pin cache counter = %d, want default %d", cfg.PinCacheCounter(), defaultPinCacheCounter)
	}
}

func TestLoadRejectsNegativeCounter(t *testing.T) {
	path := writeConfig(t, "cache:\n  pin_cache_counter: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative pin_cache_counter")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "bogus_field: true\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error for unknown field")
	}
}
