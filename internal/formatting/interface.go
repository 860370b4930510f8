// Package formatting provides unified output formatting for the labforge CLI.
//
// This package consolidates the rendering logic the read-only commands share,
// providing consistent output with support for multiple output formats
// (table, JSON, YAML). Commands pick a formatter through the factory and hand
// it lab instances; the formatter owns layout, coloring, and truncation.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"labforge/pkg/apis/lab/v1alpha1"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat converts a flag value into an OutputFormat. An empty string
// selects the table format.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: table, json, yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool      // Suppress summary lines, emit compact JSON
	Color  bool      // Enable colored output
	Output io.Writer // Destination; nil selects os.Stdout
}

// writer returns the configured destination, defaulting to stdout.
func (o Options) writer() io.Writer {
	if o.Output != nil {
		return o.Output
	}
	return os.Stdout
}

// Formatter provides unified formatting for lab instances
type Formatter interface {
	// FormatInstanceList renders a set of instances, typically for the
	// list command.
	FormatInstanceList(instances []*v1alpha1.LabInstance) error

	// FormatInstance renders a single instance in detail, typically for
	// the get command.
	FormatInstance(inst *v1alpha1.LabInstance) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

// factory implements the Factory interface
type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// listFor wraps instances in a typed list object so structured output
// carries the same envelope the API group defines.
func listFor(instances []*v1alpha1.LabInstance) *v1alpha1.LabInstanceList {
	list := &v1alpha1.LabInstanceList{}
	list.APIVersion = v1alpha1.SchemeGroupVersion.String()
	list.Kind = "LabInstanceList"
	for _, inst := range instances {
		list.Items = append(list.Items, *inst.DeepCopy())
	}
	return list
}
