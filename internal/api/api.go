package api

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/client-go/util/retry"
	"k8s.io/utils/clock"

	"labforge/internal/store"
	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// DefaultLeaseDuration is applied when a spec leaves the duration unset.
const DefaultLeaseDuration = time.Hour

// Options configures a ControlAPI.
type Options struct {
	// DefaultDuration replaces a zero spec duration. Zero selects
	// DefaultLeaseDuration.
	DefaultDuration time.Duration

	// Clock stamps condition times. Defaults to the real clock.
	Clock clock.PassiveClock
}

// ControlAPI validates and applies externally expressed intent.
type ControlAPI struct {
	store *store.Store
	opts  Options
	clock clock.PassiveClock
}

// New creates a ControlAPI over st.
func New(st *store.Store, opts Options) *ControlAPI {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultLeaseDuration
	}
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &ControlAPI{store: st, opts: opts, clock: c}
}

// Create admits a new instance. The caller provides name and spec; status is
// owned by the control plane and any caller-set status is discarded. A zero
// duration gets the configured default lease.
func (a *ControlAPI) Create(ctx context.Context, inst *v1alpha1.LabInstance) (*v1alpha1.LabInstance, error) {
	if inst == nil {
		return nil, errors.NewBadRequest("instance must not be nil")
	}
	if errs := validateSpec(inst); len(errs) > 0 {
		return nil, errors.NewInvalid(
			v1alpha1.SchemeGroupVersion.WithKind("LabInstance").GroupKind(),
			inst.Name,
			errs,
		)
	}

	admitted := inst.DeepCopy()
	if admitted.Spec.Duration.Duration == 0 {
		admitted.Spec.Duration = metav1.Duration{Duration: a.opts.DefaultDuration}
	}
	admitted.Status = v1alpha1.LabInstanceStatus{Phase: v1alpha1.LabInstancePending}
	now := metav1.NewTime(a.clock.Now())
	v1alpha1.SetPhaseCondition(admitted, v1alpha1.LabInstancePending, v1alpha1.ReasonCreated,
		fmt.Sprintf("accepted for %s", admitted.Spec.RequestedBy), now)

	created, err := a.store.Create(admitted)
	if err != nil {
		return nil, err
	}
	logging.Info("API", "created instance %s (template %s, lease %s)",
		created.Name, created.Spec.Template, created.Spec.Duration.Duration)
	return created, nil
}

// Get returns the named instance.
func (a *ControlAPI) Get(name string) (*v1alpha1.LabInstance, error) {
	return a.store.Get(name)
}

// List returns all instances in resource version order.
func (a *ControlAPI) List() []*v1alpha1.LabInstance {
	return a.store.List()
}

// ListSince returns instances written after the given version.
func (a *ControlAPI) ListSince(version int64) []*v1alpha1.LabInstance {
	return a.store.ListSince(version)
}

// RequestDeletion forces the named instance into the Deleting phase; the
// actual teardown happens when the controller observes the write. Terminal
// and already deleting instances are left untouched and returned as they
// are. Conflicts are retried because the caller expressed intent, not an
// observed version.
func (a *ControlAPI) RequestDeletion(ctx context.Context, name string) (*v1alpha1.LabInstance, error) {
	var result *v1alpha1.LabInstance
	forced := false
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		forced = false
		current, err := a.store.Get(name)
		if err != nil {
			return err
		}
		phase := current.EffectivePhase()
		if phase.Terminal() || phase == v1alpha1.LabInstanceDeleting {
			result = current
			return nil
		}

		now := metav1.NewTime(a.clock.Now())
		current.Status.Phase = v1alpha1.LabInstanceDeleting
		current.Status.Message = "deletion requested"
		current.Status.DeletingStartedAt = &now
		v1alpha1.SetPhaseCondition(current, v1alpha1.LabInstanceDeleting,
			v1alpha1.ReasonDeletionRequested, "deletion requested", now)

		updated, err := a.store.Update(current)
		if err != nil {
			return err
		}
		result = updated
		forced = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if forced {
		logging.Info("API", "deletion requested for instance %s", name)
	}
	return result, nil
}

// validateSpec collects every admission problem instead of stopping at the
// first one.
func validateSpec(inst *v1alpha1.LabInstance) field.ErrorList {
	var errs field.ErrorList

	if inst.Name == "" {
		errs = append(errs, field.Required(field.NewPath("metadata", "name"), "name is required"))
	} else {
		for _, msg := range validation.IsDNS1123Label(inst.Name) {
			errs = append(errs, field.Invalid(field.NewPath("metadata", "name"), inst.Name, msg))
		}
	}

	spec := field.NewPath("spec")
	if inst.Spec.Template == "" {
		errs = append(errs, field.Required(spec.Child("template"), "template is required"))
	}
	if inst.Spec.RequestedBy == "" {
		errs = append(errs, field.Required(spec.Child("requestedBy"), "requestedBy is required"))
	}
	if inst.Spec.Duration.Duration < 0 {
		errs = append(errs, field.Invalid(spec.Child("duration"), inst.Spec.Duration.Duration.String(), "duration must not be negative"))
	}
	return errs
}
