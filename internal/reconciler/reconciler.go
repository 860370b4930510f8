package reconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// Defaults for the periodic scan. Production values come from the
// configuration layer; zero Options fields select these.
const (
	DefaultInterval            = 15 * time.Second
	DefaultProvisioningTimeout = 5 * time.Minute
	DefaultDeletingTimeout     = 2 * time.Minute
	DefaultPendingRequeueAfter = 1 * time.Minute
	DefaultRetention           = 24 * time.Hour
)

// Store is the slice of the resource store the reconciler drives. It is
// satisfied by *store.Store.
type Store interface {
	List() []*v1alpha1.LabInstance
	Update(inst *v1alpha1.LabInstance) (*v1alpha1.LabInstance, error)
	Delete(name string) error
}

// Options configures a Reconciler.
type Options struct {
	// Interval between full scans.
	Interval time.Duration

	// ProvisioningTimeout bounds how long an instance may sit in
	// Provisioning before the scan declares it Failed.
	ProvisioningTimeout time.Duration

	// DeletingTimeout bounds the Deleting phase the same way.
	DeletingTimeout time.Duration

	// PendingRequeueAfter is the age past which an unclaimed Pending
	// instance is touched so the watcher redelivers it.
	PendingRequeueAfter time.Duration

	// Retention keeps terminal instances visible for post-mortem reads
	// before the scan removes them from the store.
	Retention time.Duration

	// Clock supplies scan time. Defaults to the real clock.
	Clock clock.PassiveClock
}

// Reconciler owns the periodic full scan. It shares the store with the
// controller but has no channel to it; every correction is an ordinary
// versioned write that the watcher delivers like any other.
type Reconciler struct {
	store   Store
	opts    Options
	clock   clock.PassiveClock
	metrics *Metrics
}

// New creates a Reconciler. Run starts the periodic scan; ScanOnce can be
// called directly, which tests and the serve command's final sweep do.
func New(st Store, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ProvisioningTimeout <= 0 {
		opts.ProvisioningTimeout = DefaultProvisioningTimeout
	}
	if opts.DeletingTimeout <= 0 {
		opts.DeletingTimeout = DefaultDeletingTimeout
	}
	if opts.PendingRequeueAfter <= 0 {
		opts.PendingRequeueAfter = DefaultPendingRequeueAfter
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &Reconciler{
		store:   st,
		opts:    opts,
		clock:   c,
		metrics: &Metrics{},
	}
}

// Run scans immediately and then on every interval tick until ctx is
// cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	logging.Info("Reconciler", "starting periodic scan every %s", r.opts.Interval)
	wait.UntilWithContext(ctx, r.ScanOnce, r.opts.Interval)
	logging.Info("Reconciler", "stopped")
}

// ScanOnce inspects every stored instance and applies at most one correction
// each. Conflicting writes are skipped silently; the next scan re-evaluates
// against whatever state won.
func (r *Reconciler) ScanOnce(ctx context.Context) {
	started := r.clock.Now()
	instances := r.store.List()
	acted := 0
	for _, inst := range instances {
		if ctx.Err() != nil {
			return
		}
		if r.reconcile(inst) {
			acted++
		}
	}
	r.metrics.RecordScan(len(instances), acted, r.clock.Since(started))
}

// Metrics returns a snapshot of the scan counters.
func (r *Reconciler) Metrics() MetricsSummary {
	return r.metrics.Summary()
}

func (r *Reconciler) reconcile(inst *v1alpha1.LabInstance) bool {
	switch inst.EffectivePhase() {
	case v1alpha1.LabInstancePending:
		return r.requeueStalePending(inst)
	case v1alpha1.LabInstanceProvisioning:
		return r.failIfStuck(inst, v1alpha1.LabInstanceProvisioning)
	case v1alpha1.LabInstanceDeleting:
		return r.failIfStuck(inst, v1alpha1.LabInstanceDeleting)
	case v1alpha1.LabInstanceReady:
		return r.expireIfElapsed(inst)
	case v1alpha1.LabInstanceFailed, v1alpha1.LabInstanceDeleted:
		return r.retireIfAged(inst)
	}
	return false
}

// failIfStuck moves an instance that exceeded its phase budget to Failed.
// The in-process operation, if one still exists, discovers the lost claim
// when its completion write conflicts.
func (r *Reconciler) failIfStuck(inst *v1alpha1.LabInstance, phase v1alpha1.LabInstancePhase) bool {
	var stamp *metav1.Time
	var budget time.Duration
	var reason, verb string
	if phase == v1alpha1.LabInstanceProvisioning {
		stamp = inst.Status.ProvisioningStartedAt
		budget = r.opts.ProvisioningTimeout
		reason = v1alpha1.ReasonProvisioningTimedOut
		verb = "provisioning"
	} else {
		stamp = inst.Status.DeletingStartedAt
		budget = r.opts.DeletingTimeout
		reason = v1alpha1.ReasonTeardownTimedOut
		verb = "teardown"
	}
	if r.clock.Since(phaseStart(inst, phase, stamp)) < budget {
		return false
	}

	msg := fmt.Sprintf("%s did not finish within %s", verb, budget)
	inst.Status.Phase = v1alpha1.LabInstanceFailed
	inst.Status.Message = msg
	v1alpha1.SetPhaseCondition(inst, v1alpha1.LabInstanceFailed, reason, msg, metav1.NewTime(r.clock.Now()))
	if !r.write(inst, "fail stuck instance") {
		return false
	}
	r.metrics.RecordTimeout(phase)
	logging.Warn("Reconciler", "instance %s failed: %s", inst.Name, msg)
	return true
}

// expireIfElapsed moves a Ready instance past its lease to Deleting.
func (r *Reconciler) expireIfElapsed(inst *v1alpha1.LabInstance) bool {
	expires := inst.ExpiresAt()
	if expires.IsZero() || r.clock.Now().Before(expires.Time) {
		return false
	}

	now := metav1.NewTime(r.clock.Now())
	msg := fmt.Sprintf("lease expired at %s", expires.Format(time.RFC3339))
	inst.Status.Phase = v1alpha1.LabInstanceDeleting
	inst.Status.Message = msg
	inst.Status.DeletingStartedAt = &now
	v1alpha1.SetPhaseCondition(inst, v1alpha1.LabInstanceDeleting, v1alpha1.ReasonExpired, msg, now)
	if !r.write(inst, "expire instance") {
		return false
	}
	r.metrics.RecordExpiry()
	logging.Info("Reconciler", "instance %s expired, beginning teardown", inst.Name)
	return true
}

// requeueStalePending touches a Pending instance nobody claimed so its new
// resource version flows through the watcher again.
func (r *Reconciler) requeueStalePending(inst *v1alpha1.LabInstance) bool {
	age := r.clock.Since(phaseStart(inst, v1alpha1.LabInstancePending, nil))
	if age < r.opts.PendingRequeueAfter {
		return false
	}

	inst.Status.Message = fmt.Sprintf("unclaimed for %s, requeued", age.Round(time.Second))
	if !r.write(inst, "requeue pending instance") {
		return false
	}
	r.metrics.RecordRequeue()
	logging.Info("Reconciler", "requeued pending instance %s (unclaimed for %s)", inst.Name, age.Round(time.Second))
	return true
}

// retireIfAged removes a terminal instance once the retention window has
// passed since it entered its terminal phase.
func (r *Reconciler) retireIfAged(inst *v1alpha1.LabInstance) bool {
	phase := inst.EffectivePhase()
	if r.clock.Since(phaseStart(inst, phase, nil)) < r.opts.Retention {
		return false
	}

	if err := r.store.Delete(inst.Name); err != nil {
		if apierrors.IsNotFound(err) {
			return false
		}
		r.metrics.RecordError()
		logging.Error("Reconciler", err, "failed to retire instance %s", inst.Name)
		return false
	}
	r.metrics.RecordRetirement()
	logging.Info("Reconciler", "retired %s instance %s after retention of %s", strings.ToLower(string(phase)), inst.Name, r.opts.Retention)
	return true
}

// write pushes the modified instance through the store's concurrency gate.
// Conflicts and races with deletion or a terminal transition are expected
// and only counted; everything else is a real error.
func (r *Reconciler) write(inst *v1alpha1.LabInstance, action string) bool {
	if _, err := r.store.Update(inst); err != nil {
		if apierrors.IsConflict(err) || apierrors.IsNotFound(err) || apierrors.IsInvalid(err) {
			r.metrics.RecordSkip()
			logging.Debug("Reconciler", "skipping %s for %s: %v", action, inst.Name, err)
			return false
		}
		r.metrics.RecordError()
		logging.Error("Reconciler", err, "failed to %s %s", action, inst.Name)
		return false
	}
	return true
}

// phaseStart resolves when inst entered phase, preferring the explicit
// status stamp over the condition trail over the creation timestamp.
func phaseStart(inst *v1alpha1.LabInstance, phase v1alpha1.LabInstancePhase, stamp *metav1.Time) time.Time {
	if stamp != nil && !stamp.IsZero() {
		return stamp.Time
	}
	if c := v1alpha1.PhaseCondition(inst, phase); c != nil {
		return c.LastTransitionTime.Time
	}
	return inst.CreationTimestamp.Time
}
