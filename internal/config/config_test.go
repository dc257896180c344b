package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_url: https://chat.example.com\n"+
			"request_timeout: 30s\n"+
			"retry_max: 5\n"+
			"default_language: ru\n"+
			"verbose: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, uint64(5), cfg.RetryMax)
	assert.Equal(t, "ru", cfg.DefaultLanguage)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, Default().StateDir, cfg.StateDir, "omitted keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: https://file.example.com\n"), 0o644))

	t.Setenv("FREECHAT_SERVER", "https://env.example.com")
	t.Setenv("FREECHAT_LANGUAGE", "de")
	t.Setenv("FREECHAT_VERBOSE", "yes")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.ServerURL)
	assert.Equal(t, "de", cfg.DefaultLanguage)
	assert.True(t, cfg.Verbose)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [broken\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/u/.freechat", "config.yaml"), DefaultPath("/home/u/.freechat"))
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"", false},
		{"maybe", false},
	}
	for _, tt := range tests {
		t.Setenv("FREECHAT_TEST_BOOL", tt.value)
		assert.Equal(t, tt.want, envBool("FREECHAT_TEST_BOOL"), "value %q", tt.value)
	}
}
