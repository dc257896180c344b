// Package config loads client configuration from a YAML file in the state
// directory, with environment overrides on top.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the client.
type Config struct {
	ServerURL       string        `yaml:"server_url"`
	StateDir        string        `yaml:"state_dir"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RetryMax        uint64        `yaml:"retry_max"`
	DefaultLanguage string        `yaml:"default_language"`
	Verbose         bool          `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:       "http://localhost:8080",
		StateDir:        ".freechat",
		RequestTimeout:  15 * time.Second,
		RetryMax:        2,
		DefaultLanguage: "en",
	}
}

// Load reads path when it exists and applies FREECHAT_* environment
// overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrap(err, "read config file")
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, errors.Wrap(err, "parse config file")
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("FREECHAT_SERVER")); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FREECHAT_STATE_DIR")); v != "" {
		cfg.StateDir = v
	}
	if v := strings.TrimSpace(os.Getenv("FREECHAT_LANGUAGE")); v != "" {
		cfg.DefaultLanguage = v
	}
	if envBool("FREECHAT_VERBOSE") {
		cfg.Verbose = true
	}

	return cfg, nil
}

// DefaultPath is the conventional config location inside the state dir.
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, "config.yaml")
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}
