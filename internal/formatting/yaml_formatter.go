package formatting

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"labforge/pkg/apis/lab/v1alpha1"
)

// YAMLFormatter provides YAML output formatting. It marshals through
// sigs.k8s.io/yaml so the output follows the same json tags the snapshot
// files and intake manifests use; a printed instance is a valid manifest.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatInstanceList formats instances as a YAML list object.
func (f *YAMLFormatter) FormatInstanceList(instances []*v1alpha1.LabInstance) error {
	return f.print(listFor(instances))
}

// FormatInstance formats a single instance as YAML.
func (f *YAMLFormatter) FormatInstance(inst *v1alpha1.LabInstance) error {
	return f.print(inst)
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

// print marshals data as YAML.
func (f *YAMLFormatter) print(data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	fmt.Fprint(f.options.writer(), string(out))
	return nil
}
