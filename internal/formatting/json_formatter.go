package formatting

import (
	"encoding/json"
	"fmt"

	"labforge/pkg/apis/lab/v1alpha1"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatInstanceList formats instances as a JSON list object.
func (f *JSONFormatter) FormatInstanceList(instances []*v1alpha1.LabInstance) error {
	return f.print(listFor(instances))
}

// FormatInstance formats a single instance as JSON.
func (f *JSONFormatter) FormatInstance(inst *v1alpha1.LabInstance) error {
	return f.print(inst)
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

// print marshals data with the formatting the options ask for.
func (f *JSONFormatter) print(data interface{}) error {
	if f.options.Quiet {
		// Compact JSON for quiet mode
		compact, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		fmt.Fprintln(f.options.writer(), string(compact))
		return nil
	}
	fmt.Fprintln(f.options.writer(), PrettyJSON(data))
	return nil
}
