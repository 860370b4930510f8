package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure for labforge.
type Config struct {
	// DataDir is where instance snapshots are persisted across restarts.
	// Empty disables persistence.
	DataDir string `yaml:"dataDir,omitempty"`

	// IntakeDir is the manifest drop directory. Empty disables intake.
	IntakeDir string `yaml:"intakeDir,omitempty"`

	PollInterval      Duration `yaml:"pollInterval,omitempty"`      // Watcher poll cadence (default: 2s)
	ReconcileInterval Duration `yaml:"reconcileInterval,omitempty"` // Reconciler scan cadence (default: 15s)

	ProvisioningTimeout Duration `yaml:"provisioningTimeout,omitempty"` // Stuck budget for Provisioning (default: 5m)
	DeletingTimeout     Duration `yaml:"deletingTimeout,omitempty"`     // Stuck budget for Deleting (default: 2m)

	DefaultDuration Duration `yaml:"defaultDuration,omitempty"` // Lease applied when a spec has none (default: 1h)
	Retention       Duration `yaml:"retention,omitempty"`       // How long terminal instances stay readable (default: 24h)

	Provisioner ProvisionerConfig `yaml:"provisioner,omitempty"`

	LogLevel string `yaml:"logLevel,omitempty"` // debug|info|warn|error (default: info)
}

// ProvisionerConfig configures the local environment simulator.
type ProvisionerConfig struct {
	Delay            Duration `yaml:"delay,omitempty"`            // Simulated work per operation (default: 3s)
	EndpointTemplate string   `yaml:"endpointTemplate,omitempty"` // Template for environment URLs, sprig functions available
	Templates        []string `yaml:"templates,omitempty"`        // Lab template allow-list, empty allows all
	MaxActive        int      `yaml:"maxActive,omitempty"`        // Concurrent environment cap (default: 0, unlimited)
}

// Duration wraps time.Duration so config files can use Go duration syntax.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"90s\" or \"1h30m\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}
