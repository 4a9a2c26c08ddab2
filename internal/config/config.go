// Package config loads the optional .understory.yml workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace config file looked up under the root.
const FileName = ".understory.yml"

// Config controls workspace discovery and client state.
type Config struct {
	// Includes are doublestar globs selecting first-party source files.
	Includes []string `yaml:"includes"`
	// Excludes drop matching files even when included.
	Excludes []string `yaml:"excludes"`
	// Open lists files treated as open in the client; open files are
	// scanned during whole-program queries regardless of classification.
	Open []string `yaml:"open"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Includes: []string{"**/*.py"},
		Excludes: []string{"**/.tox/**", "**/venv/**", "**/.venv/**"},
	}
}

// Load reads the workspace config under root. A missing file is not an
// error: defaults are returned. A present but malformed file is an error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", FileName, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", FileName, err)
	}
	if len(cfg.Includes) == 0 {
		cfg.Includes = Default().Includes
	}
	return cfg, nil
}
