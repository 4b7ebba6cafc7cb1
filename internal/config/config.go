// Package config loads and saves the client configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the client-side configuration. Flags override any value
// loaded from the file.
type Config struct {
	// ServerURL is the base URL of the analysis service.
	ServerURL string `yaml:"server_url"`
	// LogFile receives the structured log; empty disables logging. The
	// TUI owns the terminal, so there is no stderr logging mode.
	LogFile string `yaml:"log_file"`
	// ReportDir is where exported PDF reports are written.
	ReportDir string `yaml:"report_dir"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ServerURL: "http://localhost:5000",
		ReportDir: "reports",
	}
}

// Load reads a YAML configuration file. Missing keys keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = Default().ServerURL
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
