package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"labforge/pkg/logging"
)

const (
	userConfigDir  = ".config/labforge"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the labforge config root under the
// user's home directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// Load loads configuration from configPath/config.yaml, overlaying the file
// on top of the defaults. A missing file yields the defaults; a malformed or
// invalid one is an error.
func Load(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := DefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "no config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config from %s: %w", configFilePath, err)
	}
	if errs := cfg.Validate(); errs.HasErrors() {
		return Config{}, errs
	}

	logging.Info("Config", "loaded configuration from %s", configFilePath)
	return cfg, nil
}
