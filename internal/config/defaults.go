package config

import (
	"path/filepath"
	"time"
)

// DefaultConfig returns the configuration used when no config file exists.
// The data and intake directories default to subdirectories of the labforge
// config root so a fresh installation works without any setup.
func DefaultConfig() Config {
	base := GetDefaultConfigPathOrPanic()
	return Config{
		DataDir:             filepath.Join(base, "state"),
		IntakeDir:           filepath.Join(base, "intake"),
		PollInterval:        Duration{2 * time.Second},
		ReconcileInterval:   Duration{15 * time.Second},
		ProvisioningTimeout: Duration{5 * time.Minute},
		DeletingTimeout:     Duration{2 * time.Minute},
		DefaultDuration:     Duration{time.Hour},
		Retention:           Duration{24 * time.Hour},
		Provisioner: ProvisionerConfig{
			Delay: Duration{3 * time.Second},
		},
		LogLevel: "info",
	}
}
