package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readGlobal(t *testing.T) map[string]any {
	t.Helper()
	data, err := os.ReadFile(GlobalConfigPath())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key, raw string
		want     any
		wantErr  bool
	}{
		{"base_url", "localhost:8080", "http://localhost:8080", false},
		{"base_url", " ", nil, true},
		{"format", "yaml", "yaml", false},
		{"format", "xml", nil, true},
		{"cache_enabled", "0", false, false},
		{"stats", "maybe", nil, true},
		{"cache_ttl", "90", "1m30s", false},
		{"cache_ttl", "0", "0s", false},
		{"refresh_timeout", "0", nil, true},
		{"request_timeout", "2m", "2m0s", false},
		{"verbose", "2", 2, false},
		{"verbose", "3", nil, true},
		{"account_id", "1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.key, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetAndUnsetGlobal(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := SetGlobal("refresh_timeout", "10s")
	require.NoError(t, err)
	_, err = SetGlobal("stats", "true")
	require.NoError(t, err)

	info, err := os.Stat(GlobalConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	m := readGlobal(t)
	assert.Equal(t, "10s", m["refresh_timeout"])
	assert.Equal(t, true, m["stats"])

	// Round-trips through the loader.
	cfg := Default()
	loadFromFile(cfg, GlobalConfigPath(), SourceGlobal)
	assert.Equal(t, 10*time.Second, cfg.RefreshTimeout)

	found, err := UnsetGlobal("stats")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotContains(t, readGlobal(t), "stats")

	found, err = UnsetGlobal("stats")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetGlobalRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	_, err := SetGlobal("verbose", "loud")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "mindtalk", "config.json"))
	assert.True(t, os.IsNotExist(statErr), "invalid values are never written")
}

func TestSetGlobalKeepsUnknownKeys(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.MkdirAll(GlobalConfigDir(), 0700))
	require.NoError(t, os.WriteFile(GlobalConfigPath(), []byte(`{"custom":"x"}`), 0600))

	_, err := SetGlobal("format", "json")
	require.NoError(t, err)

	m := readGlobal(t)
	assert.Equal(t, "x", m["custom"])
	assert.Equal(t, "json", m["format"])
}
