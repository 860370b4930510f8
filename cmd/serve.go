package cmd

import (
	"context"
	"fmt"

	"labforge/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
// This helps troubleshoot stuck phase transitions and understand what the
// control loop is doing.
var serveDebug bool

// serveConfigPath specifies a custom configuration directory path.
// When set, config.yaml is loaded from this directory instead of the user
// config directory.
var serveConfigPath string

// serveDataDir overrides the snapshot directory from the configuration file.
var serveDataDir string

// serveIntakeDir overrides the manifest intake directory from the
// configuration file.
var serveIntakeDir string

// serveCmd defines the serve command structure.
// This is the main command of labforge that starts the control loop daemon
// which provisions and expires lab environments.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the labforge control loop daemon.",
	Long: `Starts the labforge control loop and runs it until interrupted.

The daemon wires four components around a versioned in-memory store:

1. Intake — watches the intake directory for LabInstance manifests and
   applies creates and deletes to the store.
2. Watcher — polls the store and delivers every new write to the controller.
3. Controller — drives each instance through its lifecycle phases and
   dispatches provisioning and teardown work.
4. Reconciler — periodically corrects drift: stuck operations, expired
   leases, instances left Pending, and terminal instances past retention.

Instance state survives restarts through YAML snapshots in the data
directory. Drop a manifest into the intake directory (or use
'labforge create') to launch a lab environment; remove it (or use
'labforge delete') to tear the environment down.

Configuration:
  labforge loads configuration from config.yaml in the user config
  directory ($HOME/.config/labforge by default).

  Use --config-path to load config.yaml from a different directory.
  --data-dir and --intake-dir override the directories from the
  configuration file.`,
	Args: cobra.NoArgs, // No arguments required
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	// Create application configuration from the command line flags
	cfg := app.NewConfig(serveDebug, serveConfigPath, serveDataDir, serveIntakeDir)

	// Create and initialize the application
	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Run the application
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

// init registers the serve command and its flags with the root command.
// This is called automatically when the package is imported.
func init() {
	rootCmd.AddCommand(serveCmd)

	// Register command flags
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable general debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Override the snapshot directory from the configuration file")
	serveCmd.Flags().StringVar(&serveIntakeDir, "intake-dir", "", "Override the manifest intake directory from the configuration file")
}
