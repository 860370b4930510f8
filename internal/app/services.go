package app

import (
	"fmt"

	"labforge/internal/api"
	"labforge/internal/controller"
	"labforge/internal/events"
	"labforge/internal/intake"
	"labforge/internal/provision"
	"labforge/internal/reconciler"
	"labforge/internal/store"
	"labforge/internal/watcher"
	"labforge/pkg/logging"
)

// Services holds all initialized components used by the application.
// This struct serves as the central registry for the control loop,
// providing access to the store, the loop participants, and the inbound
// surfaces.
//
// The components are initialized in a specific order to handle dependencies:
//  1. Store (shared by everything)
//  2. Provisioner (backend seam)
//  3. Controller (depends on store and provisioner)
//  4. Event recorder and watcher (deliver store changes to the controller)
//  5. Reconciler (periodic repair against the store)
//  6. Control API and intake (inbound surfaces)
type Services struct {
	// Store is the versioned resource store backing the whole loop.
	Store *store.Store

	// Provisioner simulates the environment backend.
	Provisioner *provision.Local

	// Controller owns phase transitions and provisioner dispatch.
	Controller *controller.Controller

	// Watcher polls the store and fans changes out to handlers.
	Watcher *watcher.Watcher

	// Events records observed phase transitions for operators.
	Events *events.Recorder

	// Reconciler repairs stuck, expired, and stale instances.
	Reconciler *reconciler.Reconciler

	// API admits creations and deletion requests.
	API *api.ControlAPI

	// Intake applies manifest files from the intake directory. Nil when
	// the intake directory is disabled.
	Intake *intake.Intake
}

// InitializeServices creates and wires all components for the application.
//
// Handler Registration Order:
// The controller is registered with the watcher before the event recorder, so
// a transition is acted on before it is narrated. Both handlers receive their
// own copy of every observed instance.
//
// Intake Handling:
// The intake component is only created when the configuration names an intake
// directory; an empty IntakeDir disables manifest ingestion entirely.
//
// Returns a fully initialized Services struct or an error if a critical
// component fails to initialize.
func InitializeServices(cfg *Config) (*Services, error) {
	labCfg := cfg.LabConfig
	if labCfg == nil {
		return nil, fmt.Errorf("application configuration has not been loaded")
	}

	st, err := store.New(store.Options{SnapshotDir: labCfg.DataDir})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	prov, err := provision.NewLocal(provision.LocalConfig{
		Delay:            labCfg.Provisioner.Delay.Duration,
		EndpointTemplate: labCfg.Provisioner.EndpointTemplate,
		Templates:        labCfg.Provisioner.Templates,
		MaxActive:        labCfg.Provisioner.MaxActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provisioner: %w", err)
	}

	ctrl := controller.New(st, prov, controller.Options{
		ProvisionTimeout: labCfg.ProvisioningTimeout.Duration,
		TeardownTimeout:  labCfg.DeletingTimeout.Duration,
	})

	recorder := events.NewRecorder(events.RecorderOptions{})

	w := watcher.New(st, labCfg.PollInterval.Duration)
	w.AddHandler("controller", ctrl.HandleEvent)
	w.AddHandler("events", recorder.HandleEvent)

	rec := reconciler.New(st, reconciler.Options{
		Interval:            labCfg.ReconcileInterval.Duration,
		ProvisioningTimeout: labCfg.ProvisioningTimeout.Duration,
		DeletingTimeout:     labCfg.DeletingTimeout.Duration,
		Retention:           labCfg.Retention.Duration,
	})

	capi := api.New(st, api.Options{
		DefaultDuration: labCfg.DefaultDuration.Duration,
	})

	var in *intake.Intake
	if labCfg.IntakeDir != "" {
		in = intake.New(labCfg.IntakeDir, capi, 0)
		logging.Debug("Bootstrap", "manifest intake enabled for %s", labCfg.IntakeDir)
	} else {
		logging.Info("Bootstrap", "manifest intake disabled, no intake directory configured")
	}

	logging.Info("Bootstrap", "components wired, poll %s, reconcile %s", labCfg.PollInterval.Duration, labCfg.ReconcileInterval.Duration)

	return &Services{
		Store:       st,
		Provisioner: prov,
		Controller:  ctrl,
		Watcher:     w,
		Events:      recorder,
		Reconciler:  rec,
		API:         capi,
		Intake:      in,
	}, nil
}
