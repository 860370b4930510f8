// Package app provides application bootstrap, lifecycle management, and configuration management for labforge.
//
// This package implements the central application lifecycle control. It handles
// initialization, configuration loading, component wiring, and the run loop that
// keeps the control loop alive until shutdown.
//
// # Architecture Overview
//
// The app package serves as the application's bootstrap layer, with four core components:
//
// 1. **Bootstrap (`bootstrap.go`)**: Application initialization and lifecycle management
// 2. **Configuration (`config.go`)**: Application runtime configuration structure
// 3. **Services (`services.go`)**: Component initialization and dependency wiring
// 4. **Run Loop (`run.go`)**: Signal handling and graceful shutdown
//
// # Component Wiring
//
// InitializeServices builds the control loop in dependency order:
//
//  1. **Store**: Versioned resource store, optionally persisted under DataDir
//  2. **Provisioner**: Local environment simulator configured from the provisioner section
//  3. **Controller**: Phase state machine, the only caller of the provisioner
//  4. **Event Recorder**: In-memory event log fed by watcher deliveries
//  5. **Watcher**: Poll loop fanning store changes out to controller and recorder
//  6. **Reconciler**: Periodic full-scan repair of stuck, expired, and stale instances
//  7. **Control API**: Validating facade for creations and deletion requests
//  8. **Intake**: Manifest directory watcher feeding the control API (when enabled)
//
// Handler registration order matters: the controller is registered before the
// event recorder so an observed transition is acted on before it is narrated.
//
// # Execution Model
//
// Run starts every component in its own goroutine under a shared errgroup,
// notifies the service manager when the loop is up, and blocks until a
// SIGINT/SIGTERM arrives or a component fails. Shutdown cancels the shared
// context, drains in-flight provisioner calls through the controller, and logs
// a final summary of watcher and reconciler activity.
//
// # Usage Patterns
//
// ## Standard Application Startup
//
//	cfg := app.NewConfig(false, "", "", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx)
//
// ## Custom Configuration Directory
//
//	cfg := app.NewConfig(false, "/opt/labforge", "", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx)
//
// # Error Handling and Resilience
//
// **Fail-Fast Approach**: Critical components (store, provisioner, configuration)
// cause immediate initialization failure if they cannot be set up properly.
//
// **Signal Handling**: SIGINT/SIGTERM trigger graceful shutdown with in-flight
// provisioner operations drained before the process exits.
//
// **Component Failure**: If any component's run loop returns an error, the
// shared errgroup context cancels the remaining components and Run returns the
// first error.
package app
