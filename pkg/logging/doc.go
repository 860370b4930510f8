// Package logging provides a structured logging system for labforge with
// unified log handling and flexible output formatting.
//
// This package implements a logging system built on Go's standard slog
// package, providing consistent logging behavior with structured output and
// level filtering.
//
// # Architecture
//
// The logging system is built around these core concepts:
//
// ## Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// ## Structured Logging
// All log entries include:
//   - Timestamp with nanosecond precision
//   - Log level (Debug, Info, Warn, Error)
//   - Subsystem identifier for categorization
//   - Message content with optional formatting
//   - Optional error information
//
// # Usage Examples
//
//	import "labforge/pkg/logging"
//
//	// Initialize with Info level text logging to stderr
//	logging.Init(logging.LevelInfo, "text", os.Stderr)
//
//	// Log messages
//	logging.Info("App", "control loop starting up")
//	logging.Debug("Config", "loaded configuration from %s", configPath)
//	logging.Warn("Watcher", "handler %s failed, continuing", name)
//	logging.Error("Store", err, "snapshot write failed for %s", name)
//
// The "json" format emits one JSON object per line for log aggregation;
// one-shot CLI commands use InitForCLI, which always selects text output.
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **App**: Application initialization, startup and shutdown
//   - **Config**: Configuration loading and validation
//   - **Store**: Resource store writes and snapshot persistence
//   - **Watcher**: Poll cycles and handler dispatch
//   - **Controller**: Phase transitions and side-effect dispatch
//   - **Reconciler**: Periodic scans and drift corrections
//   - **Intake**: Manifest directory ingestion
//   - **Events**: Audit trail recording
//
// # Thread Safety
//
// The logging system is fully thread-safe:
//   - Safe concurrent logging from multiple goroutines
//   - Level filtering at handler level for efficiency
//   - No memory allocation for filtered-out messages
package logging
