package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"k8s.io/utils/clock"

	"labforge/internal/provision"
	"labforge/internal/store"
	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// Default per-operation deadlines for calls into the provisioner seam.
const (
	DefaultProvisionTimeout = 5 * time.Minute
	DefaultTeardownTimeout  = 2 * time.Minute
)

// Options configures a Controller.
type Options struct {
	// ProvisionTimeout caps a single Provision call. Zero selects
	// DefaultProvisionTimeout.
	ProvisionTimeout time.Duration

	// TeardownTimeout caps a single Teardown call. Zero selects
	// DefaultTeardownTimeout.
	TeardownTimeout time.Duration

	// Clock stamps transition timestamps. Defaults to the real clock.
	Clock clock.PassiveClock
}

// Controller owns the phase transitions of LabInstance resources and is the
// only caller of the provisioner seam.
type Controller struct {
	store *store.Store
	prov  provision.Provisioner
	opts  Options
	clock clock.PassiveClock

	// ctx bounds all asynchronous operations; cancel fires on shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inFlight map[types.UID]string
	stopped  bool
	wg       sync.WaitGroup
}

// New creates a Controller. HandleEvent may be used immediately; Run only
// ties the controller's background work to the process lifecycle.
func New(st *store.Store, prov provision.Provisioner, opts Options) *Controller {
	if opts.ProvisionTimeout <= 0 {
		opts.ProvisionTimeout = DefaultProvisionTimeout
	}
	if opts.TeardownTimeout <= 0 {
		opts.TeardownTimeout = DefaultTeardownTimeout
	}
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:    st,
		prov:     prov,
		opts:     opts,
		clock:    c,
		ctx:      ctx,
		cancel:   cancel,
		inFlight: make(map[types.UID]string),
	}
}

// Run blocks until ctx is cancelled, then stops accepting new dispatches,
// cancels in-flight provisioner calls and waits for them to drain.
func (c *Controller) Run(ctx context.Context) {
	<-ctx.Done()
	c.Stop()
}

// Stop drains the controller. Safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	alreadyStopped := c.stopped
	c.stopped = true
	c.mu.Unlock()
	if alreadyStopped {
		return
	}
	c.cancel()
	c.wg.Wait()
	logging.Info("Controller", "all in-flight operations drained")
}

// WaitIdle blocks until no provision or teardown is in flight.
func (c *Controller) WaitIdle() {
	c.wg.Wait()
}

// HandleEvent is the watcher handler: one observed instance, one decision.
func (c *Controller) HandleEvent(ctx context.Context, inst *v1alpha1.LabInstance) error {
	switch phase := inst.EffectivePhase(); phase {
	case v1alpha1.LabInstancePending:
		return c.claimProvisioning(inst)

	case v1alpha1.LabInstanceProvisioning:
		// The claim writer dispatched the work; re-observations carry no
		// new information. An instance stuck here after a crash is timed
		// out by the reconciler.
		return nil

	case v1alpha1.LabInstanceReady:
		// Expiry is the reconciler's call.
		return nil

	case v1alpha1.LabInstanceDeleting:
		c.ensureTeardown(inst)
		return nil

	case v1alpha1.LabInstanceDeleted, v1alpha1.LabInstanceFailed:
		// Terminal phases are idempotent sinks.
		return nil

	default:
		logging.Warn("Controller", "ignoring %s with unknown phase %q", inst.Name, phase)
		return nil
	}
}

// claimProvisioning writes the Pending→Provisioning transition and, only
// when that write wins, dispatches the provision work. Losing the version
// race means another actor owns the transition, so the loser dispatches
// nothing and walks away.
func (c *Controller) claimProvisioning(inst *v1alpha1.LabInstance) error {
	claim := inst.DeepCopy()
	now := metav1.NewTime(c.clock.Now())
	claim.Status.Phase = v1alpha1.LabInstanceProvisioning
	claim.Status.Message = fmt.Sprintf("provisioning template %s", claim.Spec.Template)
	claim.Status.ProvisioningStartedAt = &now
	v1alpha1.SetPhaseCondition(claim, v1alpha1.LabInstanceProvisioning, v1alpha1.ReasonProvisioningStarted, claim.Status.Message, now)

	claimed, err := c.store.Update(claim)
	if err != nil {
		if apierrors.IsConflict(err) {
			logging.Debug("Controller", "lost provisioning claim for %s at version %s", inst.Name, inst.ResourceVersion)
			return nil
		}
		return fmt.Errorf("failed to claim provisioning for %s: %w", inst.Name, err)
	}

	logging.Info("Controller", "provisioning %s (template %s, requested by %s)", claimed.Name, claimed.Spec.Template, claimed.Spec.RequestedBy)
	if !c.dispatch(provision.OpProvision, claimed.UID, func(ctx context.Context) {
		c.runProvision(ctx, claimed)
	}) {
		// Only happens during shutdown; the reconciler times the claimed
		// instance out on a later run.
		logging.Warn("Controller", "claimed provisioning for %s but the controller is stopping", claimed.Name)
	}
	return nil
}

// ensureTeardown makes sure a teardown is running for a Deleting instance.
// Deleting is re-observed for as long as the teardown runs, so dispatch is
// deduplicated by UID.
func (c *Controller) ensureTeardown(inst *v1alpha1.LabInstance) {
	target := inst.DeepCopy()
	if c.dispatch(provision.OpTeardown, target.UID, func(ctx context.Context) {
		c.runTeardown(ctx, target)
	}) {
		logging.Info("Controller", "tearing down %s", target.Name)
	}
}

// dispatch starts fn in a tracked goroutine unless the controller is
// stopping or the instance already has an operation in flight.
func (c *Controller) dispatch(op string, uid types.UID, fn func(ctx context.Context)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	if _, busy := c.inFlight[uid]; busy {
		return false
	}
	c.inFlight[uid] = op
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.clearInFlight(uid)
		fn(c.ctx)
	}()
	return true
}

func (c *Controller) clearInFlight(uid types.UID) {
	c.mu.Lock()
	delete(c.inFlight, uid)
	c.mu.Unlock()
}

func (c *Controller) runProvision(ctx context.Context, inst *v1alpha1.LabInstance) {
	opCtx, cancel := context.WithTimeout(ctx, c.opts.ProvisionTimeout)
	defer cancel()

	result, provErr := c.prov.Provision(opCtx, inst)

	// Free the in-flight slot before completion so a compensating teardown
	// can be dispatched from the completion path.
	c.clearInFlight(inst.UID)

	if ctx.Err() != nil {
		logging.Info("Controller", "provision of %s abandoned during shutdown", inst.Name)
		return
	}
	c.completeProvision(inst.Name, result, provErr)
}

// completeProvision applies the provision outcome to the instance's current
// state. Conflicts re-fetch and re-decide; a phase that moved on discards
// the outcome.
func (c *Controller) completeProvision(name string, result *provision.Result, provErr error) {
	var compensate *v1alpha1.LabInstance

	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		compensate = nil
		fresh, err := c.store.Get(name)
		if err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}

		switch fresh.Status.Phase {
		case v1alpha1.LabInstanceProvisioning:
			// Still ours to complete.
		case v1alpha1.LabInstanceDeleting:
			// Force-deleted while provisioning. The outcome is obsolete;
			// tear the environment down (a no-op if none came up).
			compensate = fresh
			return nil
		default:
			logging.Debug("Controller", "discarding provision outcome for %s, phase moved to %s", name, fresh.Status.Phase)
			return nil
		}

		now := metav1.NewTime(c.clock.Now())
		if provErr != nil {
			fresh.Status.Phase = v1alpha1.LabInstanceFailed
			fresh.Status.Message = fmt.Sprintf("provisioning failed: %v", provErr)
			v1alpha1.SetPhaseCondition(fresh, v1alpha1.LabInstanceFailed, v1alpha1.ReasonProvisionFailed, fresh.Status.Message, now)
		} else {
			fresh.Status.Phase = v1alpha1.LabInstanceReady
			fresh.Status.Endpoint = result.Endpoint
			fresh.Status.ReadyAt = &now
			fresh.Status.Message = "lab environment is ready"
			v1alpha1.SetPhaseCondition(fresh, v1alpha1.LabInstanceReady, v1alpha1.ReasonProvisioned, fmt.Sprintf("endpoint %s", result.Endpoint), now)
		}

		_, updateErr := c.store.Update(fresh)
		return updateErr
	})
	if err != nil {
		logging.Error("Controller", err, "failed to record provision outcome for %s", name)
	}

	if provErr != nil {
		logging.Warn("Controller", "provisioning of %s failed: %v", name, provErr)
	}
	if compensate != nil {
		if c.dispatch(provision.OpTeardown, compensate.UID, func(ctx context.Context) {
			c.runTeardown(ctx, compensate)
		}) {
			logging.Info("Controller", "compensating teardown for %s after obsolete provision", name)
		}
	}
}

func (c *Controller) runTeardown(ctx context.Context, inst *v1alpha1.LabInstance) {
	opCtx, cancel := context.WithTimeout(ctx, c.opts.TeardownTimeout)
	defer cancel()

	tdErr := c.prov.Teardown(opCtx, inst)

	c.clearInFlight(inst.UID)

	if ctx.Err() != nil {
		logging.Info("Controller", "teardown of %s abandoned during shutdown", inst.Name)
		return
	}
	c.completeTeardown(inst.Name, tdErr)
}

// completeTeardown applies the teardown outcome to the instance's current
// state, with the same conflict and moved-on handling as provisioning.
func (c *Controller) completeTeardown(name string, tdErr error) {
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		fresh, err := c.store.Get(name)
		if err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if fresh.Status.Phase != v1alpha1.LabInstanceDeleting {
			logging.Debug("Controller", "discarding teardown outcome for %s, phase moved to %s", name, fresh.Status.Phase)
			return nil
		}

		now := metav1.NewTime(c.clock.Now())
		if tdErr != nil {
			fresh.Status.Phase = v1alpha1.LabInstanceFailed
			fresh.Status.Message = fmt.Sprintf("teardown failed: %v", tdErr)
			v1alpha1.SetPhaseCondition(fresh, v1alpha1.LabInstanceFailed, v1alpha1.ReasonTeardownFailed, fresh.Status.Message, now)
		} else {
			fresh.Status.Phase = v1alpha1.LabInstanceDeleted
			fresh.Status.Message = "lab environment deleted"
			v1alpha1.SetPhaseCondition(fresh, v1alpha1.LabInstanceDeleted, v1alpha1.ReasonDeleted, fresh.Status.Message, now)
		}

		_, updateErr := c.store.Update(fresh)
		return updateErr
	})
	if err != nil {
		logging.Error("Controller", err, "failed to record teardown outcome for %s", name)
	}
	if tdErr != nil {
		logging.Warn("Controller", "teardown of %s failed: %v", name, tdErr)
	}
}
