package store

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/clock"

	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// labInstances is the group resource reported in API status errors.
var labInstances = v1alpha1.Resource("labinstances")

// optimisticLockError matches the apiserver wording so operators see the
// familiar message in logs.
const optimisticLockError = "the object has been modified; please apply your changes to the latest version and try again"

// Options configures a Store.
type Options struct {
	// SnapshotDir enables write-through YAML snapshots under
	// <SnapshotDir>/labinstances when non-empty. Existing snapshots are
	// loaded on startup.
	SnapshotDir string

	// Clock stamps creation timestamps. Defaults to the real clock.
	Clock clock.PassiveClock
}

// Store holds LabInstance resources in memory and stamps every successful
// write with a globally monotonic resource version. All returned objects are
// deep copies; callers never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	instances map[string]*v1alpha1.LabInstance
	version   int64

	snapshots *snapshotter
	clock     clock.PassiveClock
}

// New creates a Store. When opts.SnapshotDir is set, previously persisted
// instances are loaded and the version counter resumes above the highest
// persisted version, so a restarted process continues the same sequence.
func New(opts Options) (*Store, error) {
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	s := &Store{
		instances: make(map[string]*v1alpha1.LabInstance),
		clock:     c,
	}
	if opts.SnapshotDir != "" {
		snaps, err := newSnapshotter(opts.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot directory: %w", err)
		}
		s.snapshots = snaps
		for _, inst := range snaps.loadAll() {
			s.instances[inst.Name] = inst
			if v := VersionOf(inst); v > s.version {
				s.version = v
			}
		}
		if len(s.instances) > 0 {
			logging.Info("Store", "loaded %d instances from %s, resuming at version %d", len(s.instances), opts.SnapshotDir, s.version)
		}
	}
	return s, nil
}

// Create adds a new instance and returns the stored copy. The store stamps
// UID, creation timestamp, generation, the first resource version and, when
// the caller left the phase empty, the Pending phase. A name collision fails
// with an AlreadyExists error.
func (s *Store) Create(inst *v1alpha1.LabInstance) (*v1alpha1.LabInstance, error) {
	if inst == nil || inst.Name == "" {
		return nil, errors.NewBadRequest("instance name must not be empty")
	}
	if inst.ResourceVersion != "" {
		return nil, errors.NewBadRequest("resourceVersion may not be set on objects to be created")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[inst.Name]; exists {
		return nil, errors.NewAlreadyExists(labInstances, inst.Name)
	}

	stored := inst.DeepCopy()
	stored.TypeMeta = metav1.TypeMeta{
		APIVersion: v1alpha1.SchemeGroupVersion.String(),
		Kind:       "LabInstance",
	}
	if stored.UID == "" {
		stored.UID = types.UID(uuid.NewString())
	}
	stored.Generation = 1
	stored.CreationTimestamp = metav1.NewTime(s.clock.Now())
	if stored.Status.Phase == "" {
		stored.Status.Phase = v1alpha1.LabInstancePending
	}
	s.stamp(stored)
	s.instances[stored.Name] = stored
	s.persist(stored)

	return stored.DeepCopy(), nil
}

// Get returns a deep copy of the named instance, or a NotFound error.
func (s *Store) Get(name string) (*v1alpha1.LabInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, exists := s.instances[name]
	if !exists {
		return nil, errors.NewNotFound(labInstances, name)
	}
	return inst.DeepCopy(), nil
}

// Update replaces the stored instance with the caller's copy under optimistic
// concurrency: the caller's resource version must match the stored one or the
// call fails with a Conflict error and nothing changes. Spec changes and
// writes to instances in a terminal phase are rejected as Invalid. On success
// a new resource version is stamped and the fresh copy returned.
func (s *Store) Update(inst *v1alpha1.LabInstance) (*v1alpha1.LabInstance, error) {
	if inst == nil || inst.Name == "" {
		return nil, errors.NewBadRequest("instance name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.instances[inst.Name]
	if !exists {
		return nil, errors.NewNotFound(labInstances, inst.Name)
	}
	if inst.ResourceVersion != current.ResourceVersion {
		return nil, errors.NewConflict(labInstances, inst.Name, fmt.Errorf("%s", optimisticLockError))
	}
	if !equality.Semantic.DeepEqual(current.Spec, inst.Spec) {
		return nil, errors.NewInvalid(
			v1alpha1.SchemeGroupVersion.WithKind("LabInstance").GroupKind(),
			inst.Name,
			field.ErrorList{field.Forbidden(field.NewPath("spec"), "spec is immutable; delete the instance and create a new one")},
		)
	}
	if current.Status.Phase.Terminal() {
		return nil, errors.NewInvalid(
			v1alpha1.SchemeGroupVersion.WithKind("LabInstance").GroupKind(),
			inst.Name,
			field.ErrorList{field.Forbidden(field.NewPath("status", "phase"), fmt.Sprintf("instance is %s; terminal phases accept no further updates", current.Status.Phase))},
		)
	}

	stored := inst.DeepCopy()
	// Identity fields are owned by the store, not the caller.
	stored.TypeMeta = current.TypeMeta
	stored.UID = current.UID
	stored.CreationTimestamp = current.CreationTimestamp
	stored.Generation = current.Generation
	s.stamp(stored)
	s.instances[stored.Name] = stored
	s.persist(stored)

	return stored.DeepCopy(), nil
}

// Delete physically removes the named instance and its snapshot. It is used
// by retention to drop terminal instances, not by the phase model: logical
// deletion goes through the Deleting phase.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[name]; !exists {
		return errors.NewNotFound(labInstances, name)
	}
	delete(s.instances, name)
	if s.snapshots != nil {
		if err := s.snapshots.remove(name); err != nil {
			logging.Warn("Store", "failed to remove snapshot for %s: %v", name, err)
		}
	}
	return nil
}

// List returns deep copies of all instances, ordered by resource version
// ascending.
func (s *Store) List() []*v1alpha1.LabInstance {
	return s.ListSince(0)
}

// ListSince returns deep copies of every instance whose current resource
// version is strictly greater than version, ordered by resource version
// ascending. The store keeps current state only, so versions superseded
// between two calls never surface; gaps in the sequence are expected.
func (s *Store) ListSince(version int64) []*v1alpha1.LabInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*v1alpha1.LabInstance, 0, len(s.instances))
	for _, inst := range s.instances {
		if VersionOf(inst) > version {
			out = append(out, inst.DeepCopy())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return VersionOf(out[i]) < VersionOf(out[j])
	})
	return out
}

// CurrentVersion returns the version of the most recent write, 0 when the
// store has never been written.
func (s *Store) CurrentVersion() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// stamp assigns the next global version to inst. Callers hold the write lock.
func (s *Store) stamp(inst *v1alpha1.LabInstance) {
	s.version++
	inst.ResourceVersion = strconv.FormatInt(s.version, 10)
}

// persist writes inst through to its snapshot file. Callers hold the write
// lock; failures are logged because memory stays authoritative.
func (s *Store) persist(inst *v1alpha1.LabInstance) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.write(inst); err != nil {
		logging.Warn("Store", "failed to write snapshot for %s: %v", inst.Name, err)
	}
}

// VersionOf returns the numeric resource version of inst. Unset or malformed
// versions parse as 0, which orders before every real version.
func VersionOf(inst *v1alpha1.LabInstance) int64 {
	v, err := strconv.ParseInt(inst.ResourceVersion, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
