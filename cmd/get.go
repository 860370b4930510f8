package cmd

import (
	"github.com/spf13/cobra"

	"labforge/internal/formatting"
)

var (
	getOutputFormat string
	getQuiet        bool
	getNoColor      bool
	getDataDir      string
	getConfigPath   string
)

// getCmd shows one lab instance from the snapshot directory. YAML is the
// default so the output doubles as a manifest that can be fed back through
// the intake directory.
var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show one lab instance",
	Long: `Prints the named lab instance from the snapshot directory.

Output defaults to YAML, which round-trips as a LabInstance manifest. Use
-o table for a field summary including the condition history, or -o json.

Exits with code 2 when the instance does not exist.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// runGet loads the named snapshot and hands it to the selected formatter.
func runGet(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(getOutputFormat)
	if err != nil {
		return err
	}

	st, err := openSnapshotStore(getDataDir, getConfigPath)
	if err != nil {
		return err
	}
	inst, err := st.Get(args[0])
	if err != nil {
		return err
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  getQuiet,
		Color:  !getNoColor,
		Output: cmd.OutOrStdout(),
	})
	return formatter.FormatInstance(inst)
}

// init registers the get command and its flags with the root command.
func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOutputFormat, "output", "o", "yaml", "Output format (table, json, yaml)")
	getCmd.Flags().BoolVarP(&getQuiet, "quiet", "q", false, "Suppress non-essential output")
	getCmd.Flags().BoolVar(&getNoColor, "no-color", false, "Disable colored table output")
	getCmd.Flags().StringVar(&getDataDir, "data-dir", "", "Snapshot directory to read instead of the configured one")
	getCmd.Flags().StringVar(&getConfigPath, "config-path", "", "Custom configuration directory path")
}
