package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the toolpack CLI configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	LogLevel           string `json:"log_level"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds"`

	// Credentials is a token store keyed by environment-variable name
	// (e.g. "EXA_API_KEY"). The process environment still wins; entries
	// here are the fallback for keys not exported in the shell.
	Credentials map[string]string `json:"credentials"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:           "info",
		HTTPTimeoutSeconds: 30,
	}
}

func toolpackDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolpack"
	}
	return filepath.Join(home, ".toolpack")
}

func settingsPath() string {
	return filepath.Join(toolpackDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("TOOLPACK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TOOLPACK_HTTP_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTPTimeoutSeconds = n
		}
	}

	return cfg
}
