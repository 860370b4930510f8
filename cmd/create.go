package cmd

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"

	"github.com/spf13/cobra"

	"labforge/pkg/apis/lab/v1alpha1"
)

var (
	createTemplate    string
	createRequestedBy string
	createDuration    time.Duration
	createParams      map[string]string
	createIntakeDir   string
	createConfigPath  string
)

// createCmd renders a LabInstance manifest and drops it into the intake
// directory. The serve daemon picks the file up and provisions the
// environment; the command itself does not talk to the daemon.
var createCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Request a new lab environment",
	Long: `Writes a LabInstance manifest into the intake directory watched by the
serve daemon. The daemon applies the manifest and provisions the lab
environment asynchronously; use 'labforge list' to follow its progress.

The instance name becomes the manifest file name (NAME.yaml) and must be a
valid DNS label. A zero duration leaves the lease to the daemon's configured
default.

Examples:
  labforge create alice-lab --template kubernetes-intro --duration 2h
  labforge create bob-lab --template linux-forensics --param region=eu-west-1`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

// runCreate validates the request locally and writes the manifest file.
func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if msgs := validation.IsDNS1123Label(name); len(msgs) > 0 {
		return fmt.Errorf("invalid instance name %q: %s", name, msgs[0])
	}
	if createDuration < 0 {
		return fmt.Errorf("duration must not be negative")
	}

	requestedBy := createRequestedBy
	if requestedBy == "" {
		requestedBy = currentUsername()
	}

	inst := v1alpha1.LabInstance{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.SchemeGroupVersion.String(),
			Kind:       "LabInstance",
		},
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: v1alpha1.LabInstanceSpec{
			Template:    createTemplate,
			RequestedBy: requestedBy,
			Duration:    metav1.Duration{Duration: createDuration},
			Parameters:  createParams,
		},
	}

	data, err := yaml.Marshal(&inst)
	if err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}

	intakeDir, err := resolveIntakeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(intakeDir, 0755); err != nil {
		return fmt.Errorf("failed to create intake directory %s: %w", intakeDir, err)
	}

	manifestPath := filepath.Join(intakeDir, name+".yaml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("manifest %s already exists; delete it first or pick another name", manifestPath)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s\n", manifestPath)
	return nil
}

// resolveIntakeDir picks the intake directory from the flag or, when unset,
// from the configuration the serve daemon would use.
func resolveIntakeDir() (string, error) {
	if createIntakeDir != "" {
		return createIntakeDir, nil
	}
	cfg, err := loadLabConfig(createConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.IntakeDir == "" {
		return "", fmt.Errorf("no intake directory configured; set intakeDir in config.yaml or pass --intake-dir")
	}
	return cfg.IntakeDir, nil
}

// currentUsername resolves who is asking for the environment when
// --requested-by is not given.
func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// init registers the create command and its flags with the root command.
func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createTemplate, "template", "", "Lab template to launch (required)")
	createCmd.Flags().StringVar(&createRequestedBy, "requested-by", "", "User the environment is for (defaults to the current user)")
	createCmd.Flags().DurationVar(&createDuration, "duration", 0, "How long the environment stays up once Ready (0 uses the daemon default)")
	createCmd.Flags().StringToStringVar(&createParams, "param", nil, "Template parameter as key=value (repeatable)")
	createCmd.Flags().StringVar(&createIntakeDir, "intake-dir", "", "Intake directory to write the manifest into")
	createCmd.Flags().StringVar(&createConfigPath, "config-path", "", "Custom configuration directory path")
	_ = createCmd.MarkFlagRequired("template")
}
