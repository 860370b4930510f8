package app

import (
	"labforge/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Custom configuration directory (optional)
	// When set, config.yaml is loaded from this directory instead of the
	// user config directory
	ConfigPath string

	// DataDir overrides the persistence directory from the configuration
	// file when non-empty
	DataDir string

	// IntakeDir overrides the manifest intake directory from the
	// configuration file when non-empty
	IntakeDir string

	// Environment configuration
	LabConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, dataDir, intakeDir string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		DataDir:    dataDir,
		IntakeDir:  intakeDir,
	}
}
