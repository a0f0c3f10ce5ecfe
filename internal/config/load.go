package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config validation errors.
var (
	ErrInvalidDocumentLimit = errors.New("parser.max_document_mb must be positive")
	ErrInvalidWorkers       = errors.New("batch.workers must not be negative")
)

// Load loads configuration with priority: defaults < file < flags.
func Load(o *Overrides) (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the standard locations
	var configPath string
	if o != nil {
		configPath = o.ConfigPath
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed by falling back to defaults.
func (c *Config) Validate() error {
	if c.Parser.MaxDocumentMB <= 0 {
		return ErrInvalidDocumentLimit
	}
	if c.Batch.Workers < 0 {
		return ErrInvalidWorkers
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./gfmdlconv.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "GFMDLConverter")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "GFMDLConverter")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "gfmdl-converter")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "gfmdl-converter")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
