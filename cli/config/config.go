package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL       string        `yaml:"api"`
	TokenFile    string        `yaml:"tokenFile"`
	PollInterval time.Duration `yaml:"pollInterval"`
	HistoryQuiet time.Duration `yaml:"historyQuiet"`
	PageSize     int           `yaml:"pageSize"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Dir is the per-user config directory.
func Dir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "gameops")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gameops"
	}
	return filepath.Join(home, ".config", "gameops")
}

func defaults() *Config {
	return &Config{
		APIURL:       "http://127.0.0.1:7777",
		TokenFile:    filepath.Join(Dir(), "token"),
		PollInterval: 1500 * time.Millisecond,
		HistoryQuiet: 300 * time.Millisecond,
		PageSize:     20,
		Timeout:      10 * time.Second,
	}
}

// Load reads the YAML file at path (default: Dir()/config.yaml) over the
// defaults, then applies GAMEOPS_* environment overrides. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.APIURL = envOr("GAMEOPS_URL", cfg.APIURL)
	cfg.TokenFile = envOr("GAMEOPS_TOKEN_FILE", cfg.TokenFile)
	if v := os.Getenv("GAMEOPS_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GAMEOPS_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
