package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"labforge/pkg/logging"
)

// runControlLoop starts every component and blocks until shutdown.
//
// Behavior:
//   - Runs watcher, controller, reconciler, and intake under one errgroup
//   - Notifies the service manager once the loop is up
//   - Blocks waiting for interrupt signals (SIGINT, SIGTERM) or a component
//     failure
//   - Performs graceful shutdown, draining in-flight provisioner operations
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
//
// Returns the first component error, or nil on a clean signal-driven
// shutdown.
func runControlLoop(ctx context.Context, services *Services) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		services.Watcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		services.Controller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		services.Reconciler.Run(gctx)
		return nil
	})
	if services.Intake != nil {
		g.Go(func() error {
			return services.Intake.Run(gctx)
		})
	}

	// Under systemd with Type=notify this flips the unit to active; anywhere
	// else the call is a no-op.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("App", "could not notify service manager: %v", err)
	} else if sent {
		logging.Debug("App", "service manager notified of readiness")
	}

	logging.Info("App", "control loop running. Press Ctrl+C to stop.")

	// Wait for interrupt signal or a component failure to shut down.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logging.Info("App", "received %s, shutting down", sig)
	case <-gctx.Done():
	}

	daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	err := g.Wait()

	stats := services.Watcher.Stats()
	scans := services.Reconciler.Metrics()
	logging.Info("App", "shutdown complete: %d polls delivered %d change(s), %d reconcile scans applied %d correction(s), %d events recorded",
		stats.Polls, stats.Delivered, scans.Scans, scans.Corrections, services.Events.Total())
	return err
}
