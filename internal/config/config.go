// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	BaseURL string `json:"base_url"`

	// Output settings
	Format string `json:"format"`

	// State directory for the credential mirror's file fallback
	StateDir string `json:"state_dir"`

	// Notification polling interval in seconds (notifications --follow)
	PollSeconds int `json:"poll_seconds"`

	// Behavior preferences (persisted via config set, overridable by flags)
	Verbose *int `json:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	BaseURL  string
	Format   string
	StateDir string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:     "https://api.folio.dev",
		Format:      "auto",
		StateDir:    GlobalConfigDir(),
		PollSeconds: 15,
		Sources:     make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > global file > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, globalConfigPath(), SourceGlobal)
	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	return cfg, nil
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	if v, ok := fileCfg["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
		cfg.Sources["base_url"] = string(source)
	}
	if v, ok := fileCfg["format"].(string); ok && v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(source)
	}
	if v, ok := fileCfg["state_dir"].(string); ok && v != "" {
		cfg.StateDir = v
		cfg.Sources["state_dir"] = string(source)
	}
	if v, ok := fileCfg["poll_seconds"].(float64); ok && v > 0 {
		cfg.PollSeconds = int(v)
		cfg.Sources["poll_seconds"] = string(source)
	}
	if v, ok := fileCfg["verbose"]; ok {
		if fv, ok := v.(float64); ok {
			iv := int(fv)
			if iv >= 0 && iv <= 2 && fv == float64(iv) {
				cfg.Verbose = &iv
				cfg.Sources["verbose"] = string(source)
			}
		}
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FOLIO_BASE_URL"); v != "" {
		cfg.BaseURL = v
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("FOLIO_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
	if v := os.Getenv("FOLIO_STATE_DIR"); v != "" {
		cfg.StateDir = v
		cfg.Sources["state_dir"] = string(SourceEnv)
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	if o.StateDir != "" {
		cfg.StateDir = o.StateDir
		cfg.Sources["state_dir"] = string(SourceFlag)
	}
}

// SettableKeys lists the keys accepted by `folio config set`.
func SettableKeys() []string {
	return []string{"base_url", "format", "state_dir", "poll_seconds", "verbose"}
}

// Set writes a single key into the global config file.
func Set(key, value string) error {
	path := globalConfigPath()
	fileCfg := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: trusted config path
		_ = json.Unmarshal(data, &fileCfg)
	}

	switch key {
	case "base_url", "format", "state_dir":
		fileCfg[key] = value
	case "poll_seconds", "verbose":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		fileCfg[key] = n
	default:
		return fmt.Errorf("unknown config key %q (settable: %s)", key, strings.Join(SettableKeys(), ", "))
	}

	return writeConfigFile(path, fileCfg)
}

// Init creates the global config file with defaults when it does not exist
// yet. It reports the file path and whether this call created it.
func Init() (string, bool, error) {
	path := globalConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	def := Default()
	fileCfg := map[string]any{
		"base_url":     def.BaseURL,
		"format":       def.Format,
		"poll_seconds": def.PollSeconds,
	}
	if err := writeConfigFile(path, fileCfg); err != nil {
		return path, false, err
	}
	return path, true, nil
}

// Unset removes a key from the global config file.
func Unset(key string) error {
	path := globalConfigPath()
	fileCfg := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: trusted config path
		_ = json.Unmarshal(data, &fileCfg)
	}
	if _, ok := fileCfg[key]; !ok {
		return fmt.Errorf("config key %q is not set", key)
	}
	delete(fileCfg, key)
	return writeConfigFile(path, fileCfg)
}

func writeConfigFile(path string, fileCfg map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileCfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Path helpers

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "folio")
}

// NormalizeBaseURL turns a host or URL into a canonical base URL: scheme
// defaulted (http for loopback hosts, https otherwise), no trailing slash.
func NormalizeBaseURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if isLoopbackHost(url) {
		return "http://" + url
	}
	return "https://" + url
}

// isLoopbackHost reports whether host (with optional port) is localhost, a
// .localhost subdomain, 127.0.0.1, or [::1].
func isLoopbackHost(host string) bool {
	bare := host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		if !strings.HasPrefix(host, "[") || strings.HasPrefix(host, "[::1]:") {
			bare = host[:idx]
		}
	}
	switch {
	case bare == "localhost", strings.HasSuffix(bare, ".localhost"):
		return true
	case bare == "127.0.0.1", bare == "[::1]":
		return true
	}
	return false
}
