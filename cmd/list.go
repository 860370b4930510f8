package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labforge/internal/formatting"
	"labforge/internal/store"
	"labforge/pkg/logging"
)

var (
	listOutputFormat string
	listQuiet        bool
	listNoColor      bool
	listDataDir      string
	listConfigPath   string
)

// listCmd renders the lab instances persisted in the snapshot directory.
// It reads the snapshots directly instead of talking to the serve daemon, so
// it works whether or not the daemon is running; with the daemon stopped it
// shows the state as of the last write.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List lab instances",
	Long: `Lists the lab instances recorded in the snapshot directory, in the order
they were last written.

The command reads the daemon's YAML snapshots directly, so it also works
while the daemon is stopped. Output defaults to a table; use -o json or
-o yaml for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// runList loads the snapshots and hands them to the selected formatter.
func runList(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(listOutputFormat)
	if err != nil {
		return err
	}

	st, err := openSnapshotStore(listDataDir, listConfigPath)
	if err != nil {
		return err
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  listQuiet,
		Color:  !listNoColor,
		Output: cmd.OutOrStdout(),
	})
	return formatter.FormatInstanceList(st.List())
}

// openSnapshotStore opens a read-only view over the daemon's snapshot
// directory. Info-level store logs are suppressed so they do not interleave
// with the formatted output.
func openSnapshotStore(dataDir, configPath string) (*store.Store, error) {
	logging.InitForCLI(logging.LevelWarn, os.Stderr)

	if dataDir == "" {
		cfg, err := loadLabConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		return nil, fmt.Errorf("no data directory configured; set dataDir in config.yaml or pass --data-dir")
	}

	st, err := store.New(store.Options{SnapshotDir: dataDir})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot directory %s: %w", dataDir, err)
	}
	return st, nil
}

// init registers the list command and its flags with the root command.
func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "Suppress non-essential output")
	listCmd.Flags().BoolVar(&listNoColor, "no-color", false, "Disable colored table output")
	listCmd.Flags().StringVar(&listDataDir, "data-dir", "", "Snapshot directory to read instead of the configured one")
	listCmd.Flags().StringVar(&listConfigPath, "config-path", "", "Custom configuration directory path")
}
