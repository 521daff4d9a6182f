package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

// Keys lists the settings that can be persisted with SetGlobal.
var Keys = []string{
	"base_url", "cache_enabled", "cache_ttl", "format",
	"refresh_timeout", "request_timeout", "stats", "verbose",
}

var formats = []string{"auto", "json", "markdown", "md", "styled", "yaml", "quiet"}

// GlobalConfigPath returns the path of the per-user config file.
func GlobalConfigPath() string {
	return globalConfigPath()
}

// ParseValue validates a raw string for key and converts it to the JSON
// value stored in the config file.
func ParseValue(key, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch key {
	case "base_url":
		if raw == "" {
			return nil, fmt.Errorf("base_url must not be empty")
		}
		return NormalizeBaseURL(NormalizeHost(raw)), nil
	case "format":
		if !slices.Contains(formats, raw) {
			return nil, fmt.Errorf("format must be one of: %s", strings.Join(formats, ", "))
		}
		return raw, nil
	case "cache_enabled", "stats":
		b, ok := parseEnvBool(raw)
		if !ok {
			return nil, fmt.Errorf("%s must be true/false (or 1/0)", key)
		}
		return b, nil
	case "cache_ttl", "refresh_timeout", "request_timeout":
		d, ok := parseDuration(raw)
		if !ok || (d == 0 && key != "cache_ttl") {
			return nil, fmt.Errorf("%s must be a duration such as 30s or 2m", key)
		}
		return d.String(), nil
	case "verbose":
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 || level > 2 {
			return nil, fmt.Errorf("verbose must be 0, 1, or 2")
		}
		return level, nil
	default:
		return nil, fmt.Errorf("invalid config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}
}

// SetGlobal validates and writes key to the global config file and returns
// the stored value.
func SetGlobal(key, raw string) (any, error) {
	value, err := ParseValue(key, raw)
	if err != nil {
		return nil, err
	}
	err = editFile(GlobalConfigPath(), func(m map[string]any) bool {
		m[key] = value
		return true
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// UnsetGlobal removes key from the global config file. It reports whether
// the key was present.
func UnsetGlobal(key string) (bool, error) {
	var found bool
	err := editFile(GlobalConfigPath(), func(m map[string]any) bool {
		_, found = m[key]
		delete(m, key)
		return found
	})
	return found, err
}

// editFile loads the JSON object at path (a missing or malformed file is
// treated as empty), applies fn and writes the result back when fn reports a
// change.
func editFile(path string, fn func(map[string]any) bool) error {
	data := make(map[string]any)
	if raw, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: Path is from trusted config location
		_ = json.Unmarshal(raw, &data)
	}

	if !fn(data) {
		return nil
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicWriteFile(path, append(out, '\n')); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// atomicWriteFile writes data to a file atomically using temp+rename.
// Files are always created with 0600 permissions.
func atomicWriteFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows: rename fails when the destination exists.
	if err := os.Rename(tmpPath, path); err != nil {
		if runtime.GOOS != "windows" {
			os.Remove(tmpPath)
			return err
		}
		_ = os.Remove(path)
		return os.Rename(tmpPath, path)
	}
	return nil
}
