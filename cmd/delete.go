package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/spf13/cobra"

	"labforge/pkg/apis/lab/v1alpha1"
)

var (
	deleteIntakeDir  string
	deleteConfigPath string
)

// deleteCmd removes an instance's manifest from the intake directory. The
// serve daemon observes the removal and tears the environment down.
var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Request teardown of a lab environment",
	Long: `Removes the LabInstance manifest for NAME from the intake directory.
The serve daemon observes the removal and moves the instance into the
Deleting phase; the environment is torn down asynchronously.

Exits with code 2 when no manifest for NAME exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

// runDelete locates and removes the manifest file.
func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	intakeDir := deleteIntakeDir
	if intakeDir == "" {
		cfg, err := loadLabConfig(deleteConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		intakeDir = cfg.IntakeDir
	}
	if intakeDir == "" {
		return fmt.Errorf("no intake directory configured; set intakeDir in config.yaml or pass --intake-dir")
	}

	// Manifests may carry either YAML extension; remove whichever exists.
	for _, ext := range []string{".yaml", ".yml"} {
		manifestPath := filepath.Join(intakeDir, name+ext)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		if err := os.Remove(manifestPath); err != nil {
			return fmt.Errorf("failed to remove manifest %s: %w", manifestPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest %s removed, teardown requested\n", manifestPath)
		return nil
	}

	return apierrors.NewNotFound(v1alpha1.Resource("labinstances"), name)
}

// init registers the delete command and its flags with the root command.
func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteIntakeDir, "intake-dir", "", "Intake directory holding the manifest")
	deleteCmd.Flags().StringVar(&deleteConfigPath, "config-path", "", "Custom configuration directory path")
}
