// Package config loads the server configuration from a YAML file.
// Flags parsed in cmd/server override individual fields.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is checked when no -config flag is given.
const DefaultPath = "touchlink.yaml"

// Config is the full server configuration.
type Config struct {
	// Enabled gates the whole control server; when false the process
	// exits without binding.
	Enabled bool `yaml:"enabled"`

	// Port to listen on. 0 picks any free port; the bound port is
	// published through the window label.
	Port int `yaml:"port"`

	// Label overrides the window label (defaults to the hostname).
	Label string `yaml:"label"`

	// TargetPID is the controlled application's process id. 0 means
	// the server itself is the controlled application.
	TargetPID int `yaml:"target_pid"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{Enabled: true}
}

// Load reads and parses the file at path. A missing file is not an
// error: the defaults are returned so the server runs unconfigured.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}
