package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BaseURL != "https://api.folio.dev" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Format != "auto" {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.PollSeconds != 15 {
		t.Errorf("PollSeconds = %d", cfg.PollSeconds)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	// Global file layer
	dir := filepath.Join(tmp, "folio")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	fileCfg := map[string]any{
		"base_url":     "https://file.example.com",
		"format":       "json",
		"poll_seconds": 30,
	}
	data, _ := json.Marshal(fileCfg)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		t.Fatal(err)
	}

	// Env overrides file
	t.Setenv("FOLIO_BASE_URL", "https://env.example.com")

	// Flag overrides env
	cfg, err := Load(FlagOverrides{Format: "quiet"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want env value", cfg.BaseURL)
	}
	if cfg.Format != "quiet" {
		t.Errorf("Format = %q, want flag value", cfg.Format)
	}
	if cfg.PollSeconds != 30 {
		t.Errorf("PollSeconds = %d, want file value 30", cfg.PollSeconds)
	}

	if cfg.Sources["base_url"] != string(SourceEnv) {
		t.Errorf("base_url source = %q", cfg.Sources["base_url"])
	}
	if cfg.Sources["format"] != string(SourceFlag) {
		t.Errorf("format source = %q", cfg.Sources["format"])
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FOLIO_BASE_URL", "https://api.example.com/")

	cfg, err := Load(FlagOverrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, want no trailing slash", cfg.BaseURL)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.example.com/", "https://api.example.com"},
		{"http://localhost:3000", "http://localhost:3000"},
		{"localhost:3000", "http://localhost:3000"},
		{"api.localhost:3000", "http://api.localhost:3000"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"[::1]:8080", "http://[::1]:8080"},
		{"api.example.com", "https://api.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadSkipsMalformedFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	dir := filepath.Join(tmp, "folio")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(FlagOverrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "https://api.folio.dev" {
		t.Errorf("BaseURL = %q, want default after malformed file", cfg.BaseURL)
	}
}

func TestSetAndUnset(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Set("base_url", "https://staging.folio.dev"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := Set("poll_seconds", "60"); err != nil {
		t.Fatalf("Set poll_seconds failed: %v", err)
	}

	cfg, err := Load(FlagOverrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://staging.folio.dev" {
		t.Errorf("BaseURL = %q after Set", cfg.BaseURL)
	}
	if cfg.PollSeconds != 60 {
		t.Errorf("PollSeconds = %d after Set", cfg.PollSeconds)
	}

	if err := Unset("base_url"); err != nil {
		t.Fatalf("Unset failed: %v", err)
	}
	cfg, _ = Load(FlagOverrides{})
	if cfg.BaseURL != "https://api.folio.dev" {
		t.Errorf("BaseURL = %q after Unset, want default", cfg.BaseURL)
	}
}

func TestSetRejectsUnknownKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Set("bogus", "x"); err == nil {
		t.Error("Set should reject unknown keys")
	}
	if err := Set("poll_seconds", "not-a-number"); err == nil {
		t.Error("Set should reject non-integer poll_seconds")
	}
}

func TestUnsetMissingKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Unset("format"); err == nil {
		t.Error("Unset should fail for a key that is not set")
	}
}
