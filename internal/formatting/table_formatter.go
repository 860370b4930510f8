package formatting

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"k8s.io/apimachinery/pkg/util/duration"

	"labforge/pkg/apis/lab/v1alpha1"
	pkgstrings "labforge/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatInstanceList formats instances as a table, one row per instance.
func (f *TableFormatter) FormatInstanceList(instances []*v1alpha1.LabInstance) error {
	if len(instances) == 0 {
		f.printEmptyMessage("No lab instances found")
		return nil
	}

	t := f.createTable()
	t.AppendHeader(f.headerRow("NAME", "TEMPLATE", "PHASE", "ENDPOINT", "REQUESTED BY", "AGE", "MESSAGE"))
	for _, inst := range instances {
		t.AppendRow(table.Row{
			inst.Name,
			inst.Spec.Template,
			f.phaseCell(inst.EffectivePhase()),
			inst.Status.Endpoint,
			inst.Spec.RequestedBy,
			age(inst.CreationTimestamp.Time),
			pkgstrings.TruncateMessage(inst.Status.Message, pkgstrings.DefaultMessageMaxLen),
		})
	}
	t.Render()

	if !f.options.Quiet {
		fmt.Fprintf(f.options.writer(), "%d lab instance(s)\n", len(instances))
	}
	return nil
}

// FormatInstance formats one instance as a field/value table followed by its
// condition history.
func (f *TableFormatter) FormatInstance(inst *v1alpha1.LabInstance) error {
	t := f.createTable()
	t.AppendHeader(f.headerRow("FIELD", "VALUE"))

	rows := []table.Row{
		{"Name", inst.Name},
		{"Template", inst.Spec.Template},
		{"Requested By", inst.Spec.RequestedBy},
		{"Duration", inst.Spec.Duration.Duration.String()},
		{"Phase", f.phaseCell(inst.EffectivePhase())},
	}
	if inst.Status.Message != "" {
		rows = append(rows, table.Row{"Message", inst.Status.Message})
	}
	if inst.Status.Endpoint != "" {
		rows = append(rows, table.Row{"Endpoint", inst.Status.Endpoint})
	}
	if !inst.CreationTimestamp.IsZero() {
		rows = append(rows, table.Row{"Created", fmt.Sprintf("%s (%s ago)", inst.CreationTimestamp.Format(time.RFC3339), age(inst.CreationTimestamp.Time))})
	}
	if inst.Status.ReadyAt != nil {
		rows = append(rows, table.Row{"Ready At", inst.Status.ReadyAt.Format(time.RFC3339)})
	}
	if expires := inst.ExpiresAt(); !expires.IsZero() {
		rows = append(rows, table.Row{"Expires At", expires.Format(time.RFC3339)})
	}
	t.AppendRows(rows)
	t.Render()

	if len(inst.Status.Conditions) > 0 {
		ct := f.createTable()
		ct.AppendHeader(f.headerRow("CONDITION", "REASON", "AGE", "MESSAGE"))
		for _, c := range inst.Status.Conditions {
			ct.AppendRow(table.Row{
				c.Type,
				c.Reason,
				age(c.LastTransitionTime.Time),
				pkgstrings.TruncateMessage(c.Message, pkgstrings.DefaultMessageMaxLen),
			})
		}
		ct.Render()
	}
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	t.SetStyle(table.StyleRounded)
	return t
}

// headerRow builds a header row, highlighted when color is enabled.
func (f *TableFormatter) headerRow(cells ...string) table.Row {
	row := make(table.Row, 0, len(cells))
	for _, cell := range cells {
		if f.options.Color {
			row = append(row, text.FgHiCyan.Sprint(cell))
		} else {
			row = append(row, cell)
		}
	}
	return row
}

// phaseCell renders a phase, colored by its meaning when color is enabled.
func (f *TableFormatter) phaseCell(phase v1alpha1.LabInstancePhase) string {
	if !f.options.Color {
		return string(phase)
	}
	switch phase {
	case v1alpha1.LabInstanceReady:
		return text.FgGreen.Sprint(phase)
	case v1alpha1.LabInstanceFailed:
		return text.FgHiRed.Sprint(phase)
	case v1alpha1.LabInstanceProvisioning, v1alpha1.LabInstanceDeleting:
		return text.FgYellow.Sprint(phase)
	case v1alpha1.LabInstanceDeleted:
		return text.Faint.Sprint(phase)
	default:
		return text.FgCyan.Sprint(phase)
	}
}

// printEmptyMessage renders empty result messages
func (f *TableFormatter) printEmptyMessage(message string) {
	if f.options.Color {
		message = text.FgYellow.Sprint(message)
	}
	fmt.Fprintln(f.options.writer(), message)
}

// age renders how long ago t was in the compact form status columns use.
func age(t time.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(time.Since(t))
}
