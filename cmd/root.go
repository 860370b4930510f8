package cmd

import (
	"os"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/spf13/cobra"

	"labforge/internal/config"
)

// Exit codes for CLI commands.
// These follow common conventions so scripts can branch on the result.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeNotFound indicates the requested lab instance does not exist.
	ExitCodeNotFound = 2
)

// rootCmd represents the base command for the labforge application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "labforge",
	Short: "Provision and manage short-lived lab environments",
	Long: `labforge runs a local control loop that provisions isolated lab
environments for training sessions. Lab instances are declared as
LabInstance manifests; the serve daemon drives each one from Pending
through Provisioning to Ready and tears it down when its requested
duration elapses.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	// This is useful for providing cleaner error output to the user.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
// This can be used by other commands to access the build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	// SetVersionTemplate defines a custom template for displaying the version.
	// This is used when the --version flag is invoked.
	rootCmd.SetVersionTemplate(`{{printf "labforge version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Check for specific error types and return appropriate exit codes
		exitCode := getExitCode(err)
		os.Exit(exitCode)
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	// Unknown instances are an expected outcome for get/delete, not a
	// malfunction, and get their own code.
	if apierrors.IsNotFound(err) {
		return ExitCodeNotFound
	}

	// Default to general error
	return ExitCodeError
}

// loadLabConfig resolves the effective labforge configuration for an offline
// command. An empty configPath selects the user config directory, matching
// what the serve daemon does.
func loadLabConfig(configPath string) (config.Config, error) {
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	return config.Load(configPath)
}

// init is a special Go function that is executed when the package is initialized.
// It is used here to add subcommands to the root command.
func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
