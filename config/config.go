// Package config loads the datavault settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/vilshansen/datavault-go/constants"
)

// Config holds the datavault settings
type Config struct {
	// VaultDir is the directory holding the vault files
	VaultDir string `yaml:"vault_dir"`

	// LogLevel is a zerolog level name
	LogLevel string `yaml:"log_level"`

	// KDFIterations is the PBKDF2 round count, fixed when the account is created
	KDFIterations int `yaml:"kdf_iterations"`

	// LockMemory keeps key material out of swap
	LockMemory bool `yaml:"lock_memory"`
}

// LoadConfig loads configuration from a YAML file. A missing file gives
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dir := constants.DefaultVaultDir
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, constants.DefaultVaultDir)
	}
	return &Config{
		VaultDir:      dir,
		LogLevel:      zerolog.WarnLevel.String(),
		KDFIterations: constants.KEKIterations,
		LockMemory:    true,
	}
}

// Validate checks the values that cannot be used as they are.
func (c *Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("vault_dir must not be empty")
	}
	if c.KDFIterations <= 0 {
		return fmt.Errorf("kdf_iterations must be positive, got %d", c.KDFIterations)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
