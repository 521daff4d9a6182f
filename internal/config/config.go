// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is the production API origin.
const DefaultBaseURL = "https://api.mindtalk.app"

// Config holds the resolved configuration.
type Config struct {
	// API settings
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"-"`
	RefreshTimeout time.Duration `json:"-"`

	// Query cache settings
	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"-"`

	// Output settings
	Format string `json:"format"`

	// Behavior preferences (persisted in config files, overridable by flags)
	Stats   *bool `json:"stats,omitempty"`
	Verbose *int  `json:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	Host    string
	Format  string
	NoCache bool
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		RequestTimeout: 30 * time.Second,
		RefreshTimeout: 30 * time.Second,
		CacheEnabled:   true,
		CacheTTL:       time.Minute,
		Format:         "auto",
		Sources:        make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > global > system > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, globalConfigPath(), SourceGlobal)

	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url must not be empty")
	}
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
		cfg.BaseURL = NormalizeBaseURL(NormalizeHost(v))
		cfg.Sources["base_url"] = string(source)
	}
	if v, ok := fileCfg["format"].(string); ok && v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(source)
	}
	if v, ok := fileCfg["cache_enabled"].(bool); ok {
		cfg.CacheEnabled = v
		cfg.Sources["cache_enabled"] = string(source)
	}
	if d, ok := getDuration(fileCfg, "cache_ttl"); ok {
		cfg.CacheTTL = d
		cfg.Sources["cache_ttl"] = string(source)
	}
	if d, ok := getDuration(fileCfg, "refresh_timeout"); ok && d > 0 {
		cfg.RefreshTimeout = d
		cfg.Sources["refresh_timeout"] = string(source)
	}
	if d, ok := getDuration(fileCfg, "request_timeout"); ok && d > 0 {
		cfg.RequestTimeout = d
		cfg.Sources["request_timeout"] = string(source)
	}
	if v, ok := fileCfg["stats"].(bool); ok {
		cfg.Stats = &v
		cfg.Sources["stats"] = string(source)
	}
	if v, ok := fileCfg["verbose"].(float64); ok {
		iv := int(v)
		if iv >= 0 && iv <= 2 && v == float64(iv) {
			cfg.Verbose = &iv
			cfg.Sources["verbose"] = string(source)
		}
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MINDTALK_BASE_URL"); v != "" {
		cfg.BaseURL = NormalizeBaseURL(NormalizeHost(v))
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("MINDTALK_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
	if v := os.Getenv("MINDTALK_CACHE_ENABLED"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.CacheEnabled = b
			cfg.Sources["cache_enabled"] = string(SourceEnv)
		}
	}
	if d, ok := parseDuration(os.Getenv("MINDTALK_CACHE_TTL")); ok {
		cfg.CacheTTL = d
		cfg.Sources["cache_ttl"] = string(SourceEnv)
	}
	if d, ok := parseDuration(os.Getenv("MINDTALK_REFRESH_TIMEOUT")); ok && d > 0 {
		cfg.RefreshTimeout = d
		cfg.Sources["refresh_timeout"] = string(SourceEnv)
	}
	if d, ok := parseDuration(os.Getenv("MINDTALK_REQUEST_TIMEOUT")); ok && d > 0 {
		cfg.RequestTimeout = d
		cfg.Sources["request_timeout"] = string(SourceEnv)
	}
	if v := os.Getenv("MINDTALK_STATS"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Stats = &b
			cfg.Sources["stats"] = string(SourceEnv)
		}
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.Host != "" {
		cfg.BaseURL = NormalizeBaseURL(NormalizeHost(o.Host))
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	if o.NoCache {
		cfg.CacheEnabled = false
		cfg.Sources["cache_enabled"] = string(SourceFlag)
	}
}

// parseEnvBool parses a boolean environment variable strictly.
// Returns (value, true) for recognized values, (false, false) for unrecognized.
func parseEnvBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// parseDuration accepts Go duration strings ("90s", "2m") or bare seconds.
func parseDuration(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d, true
	}
	var secs float64
	if _, err := fmt.Sscanf(v, "%g", &secs); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

// getDuration extracts a duration that may be a string or a number of seconds.
func getDuration(m map[string]any, key string) (time.Duration, bool) {
	switch v := m[key].(type) {
	case string:
		return parseDuration(v)
	case float64:
		if v < 0 {
			return 0, false
		}
		return time.Duration(v * float64(time.Second)), true
	default:
		return 0, false
	}
}

// Path helpers

func systemConfigPath() string {
	return "/etc/mindtalk/config.json"
}

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
	return filepath.Join(configDir, "mindtalk")
}

// NormalizeBaseURL ensures consistent URL format (no trailing slash).
func NormalizeBaseURL(url string) string {
	return strings.TrimRight(url, "/")
}

// NormalizeHost converts a bare host into a URL. Loopback hosts default to
// http://, everything else to https://. Full URLs are returned unchanged.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	if IsLocalhost(host) {
		return "http://" + host
	}
	return "https://" + host
}

// IsLocalhost reports whether host (with optional port) is a loopback name.
func IsLocalhost(host string) bool {
	name := host
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			name = host[:end+1]
		}
	} else if idx := strings.LastIndex(host, ":"); idx != -1 {
		name = host[:idx]
	}
	return name == "localhost" || strings.HasSuffix(name, ".localhost") ||
		name == "127.0.0.1" || name == "[::1]"
}
