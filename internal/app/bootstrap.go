package app

import (
	"context"
	"fmt"
	"os"

	"labforge/internal/config"
	"labforge/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs labforge. It encapsulates the configuration and the wired control loop
// components required for the application's lifecycle.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: Load configuration, initialize logging, wire components
//  2. Execution phase: Run the control loop until shutdown
//
// Example usage:
//
//	cfg := app.NewConfig(false, "", "", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the
// provided configuration. This function performs the complete bootstrap
// sequence:
//
//  1. Configures logging based on debug settings
//  2. Loads labforge configuration from the config directory
//  3. Applies command line overrides for the data and intake directories
//  4. Wires all control loop components in dependency order
//
// Configuration Loading Behavior:
//   - If cfg.ConfigPath is set: loads config.yaml from the specified directory
//   - If cfg.ConfigPath is empty: loads from the user config directory
//
// The function returns an error if any critical initialization step fails,
// including configuration loading or component initialization failures.
func NewApplication(cfg *Config) (*Application, error) {
	// Configure logging based on debug flag; the configured level takes
	// over after the config file is read.
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, os.Stdout)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	labCfg, err := config.Load(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load labforge configuration from %s", configPath)
		return nil, fmt.Errorf("failed to load labforge configuration from %s: %w", configPath, err)
	}

	// Command line overrides win over the configuration file.
	if cfg.DataDir != "" {
		labCfg.DataDir = cfg.DataDir
	}
	if cfg.IntakeDir != "" {
		labCfg.IntakeDir = cfg.IntakeDir
	}
	cfg.LabConfig = &labCfg

	// The debug flag outranks the configured level so operators can always
	// force verbose output.
	if !cfg.Debug && labCfg.LogLevel != "" {
		level, err := logging.ParseLevel(labCfg.LogLevel)
		if err == nil && level != appLogLevel {
			logging.InitForCLI(level, os.Stdout)
		}
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize components")
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run executes the control loop.
//
// Handles graceful shutdown via context cancellation and system signals.
// The method blocks until the application is terminated or encounters an
// error.
func (a *Application) Run(ctx context.Context) error {
	return runControlLoop(ctx, a.services)
}

// Services exposes the wired components, mainly for tests and for commands
// that need direct access to the control API.
func (a *Application) Services() *Services {
	return a.services
}
