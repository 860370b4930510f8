package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/yaml"

	"labforge/internal/api"
	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// DefaultDebounce is how long the intake waits for additional events on the
// same file before acting on it.
const DefaultDebounce = 250 * time.Millisecond

type operation string

const (
	opApply  operation = "apply"
	opRemove operation = "remove"
)

// pendingChange tracks a debounced event for one manifest file.
type pendingChange struct {
	op    operation
	timer *time.Timer
}

// Intake watches a manifest directory and applies its changes through the
// ControlAPI.
type Intake struct {
	dir      string
	api      *api.ControlAPI
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*pendingChange
	stopCh  chan struct{}
	running bool

	// ctx bounds the work the debounce timers do after firing.
	ctx context.Context
}

// New creates an Intake for dir. A non-positive debounce selects
// DefaultDebounce.
func New(dir string, capi *api.ControlAPI, debounce time.Duration) *Intake {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Intake{
		dir:      dir,
		api:      capi,
		debounce: debounce,
		pending:  make(map[string]*pendingChange),
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps the directory once and begins watching it. The directory is
// created if it does not exist.
func (i *Intake) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil
	}

	if err := os.MkdirAll(i.dir, 0755); err != nil {
		i.mu.Unlock()
		return fmt.Errorf("failed to create intake directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		i.mu.Unlock()
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := watcher.Add(i.dir); err != nil {
		watcher.Close()
		i.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", i.dir, err)
	}

	i.watcher = watcher
	i.running = true
	i.stopCh = make(chan struct{})
	i.ctx = ctx
	i.mu.Unlock()

	i.sweepExisting()
	go i.processEvents(ctx)

	logging.Info("Intake", "watching %s for manifests", i.dir)
	return nil
}

// Stop stops the watcher and cancels pending debounce timers. Safe to call
// more than once.
func (i *Intake) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return
	}
	i.running = false
	close(i.stopCh)

	for _, entry := range i.pending {
		entry.timer.Stop()
	}
	i.pending = make(map[string]*pendingChange)

	if i.watcher != nil {
		if err := i.watcher.Close(); err != nil {
			logging.Error("Intake", err, "failed to close filesystem watcher")
		}
		i.watcher = nil
	}
	logging.Info("Intake", "stopped")
}

// Run binds the intake to ctx: it starts the watcher, blocks until ctx is
// cancelled and stops.
func (i *Intake) Run(ctx context.Context) error {
	if err := i.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	i.Stop()
	return nil
}

// sweepExisting applies every manifest already in the directory.
func (i *Intake) sweepExisting() {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		logging.Warn("Intake", "failed to read intake directory %s: %v", i.dir, err)
		return
	}
	applied := 0
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		i.applyFile(filepath.Join(i.dir, entry.Name()))
		applied++
	}
	if applied > 0 {
		logging.Info("Intake", "swept %d existing manifest(s)", applied)
	}
}

// processEvents handles filesystem events until the context or the intake
// is stopped. The watcher reference is captured once; Stop closes it, which
// closes both channels and ends the loop.
func (i *Intake) processEvents(ctx context.Context) {
	i.mu.Lock()
	watcher := i.watcher
	stopCh := i.stopCh
	i.mu.Unlock()
	if watcher == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			i.Stop()
			return

		case <-stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			i.handleFsEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Intake", err, "filesystem watcher error")
		}
	}
}

// handleFsEvent maps one fsnotify event onto a debounced operation.
func (i *Intake) handleFsEvent(event fsnotify.Event) {
	if !isYAMLFile(event.Name) {
		return
	}

	var op operation
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create,
		event.Op&fsnotify.Write == fsnotify.Write:
		op = opApply
	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		// A rename target inside the directory raises its own Create.
		op = opRemove
	default:
		return
	}

	i.debounceEvent(event.Name, op)
}

// debounceEvent coalesces rapid successive events per file. The last
// operation wins because it reflects the file's final state.
func (i *Intake) debounceEvent(path string, op operation) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return
	}
	if entry, ok := i.pending[path]; ok {
		entry.timer.Stop()
	}

	timer := time.AfterFunc(i.debounce, func() {
		i.mu.Lock()
		entry, ok := i.pending[path]
		if ok {
			delete(i.pending, path)
		}
		running := i.running
		i.mu.Unlock()

		if !ok || !running {
			return
		}
		switch entry.op {
		case opApply:
			i.applyFile(path)
		case opRemove:
			i.removeInstance(nameFromPath(path))
		}
	})

	i.pending[path] = &pendingChange{op: op, timer: timer}
}

// applyFile reads one manifest and creates the instance it describes.
func (i *Intake) applyFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Removed between the event and the timer; the Remove event
			// handles it.
			return
		}
		logging.Warn("Intake", "failed to read manifest %s: %v", path, err)
		return
	}

	var inst v1alpha1.LabInstance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		logging.Warn("Intake", "ignoring malformed manifest %s: %v", path, err)
		return
	}
	if inst.Kind != "" && inst.Kind != "LabInstance" {
		logging.Warn("Intake", "ignoring manifest %s: unexpected kind %q", path, inst.Kind)
		return
	}
	if inst.Name == "" {
		inst.Name = nameFromPath(path)
	}
	// Identity comes from the store, even when the manifest is a copy of a
	// live object.
	inst.UID = ""
	inst.ResourceVersion = ""

	created, err := i.api.Create(i.ctx, &inst)
	switch {
	case err == nil:
		logging.Debug("Intake", "applied manifest %s as instance %s", path, created.Name)
	case apierrors.IsAlreadyExists(err):
		logging.Debug("Intake", "instance %s already exists, ignoring manifest %s", inst.Name, path)
	case apierrors.IsInvalid(err):
		logging.Warn("Intake", "rejected manifest %s: %v", path, err)
	default:
		logging.Error("Intake", err, "failed to apply manifest %s", path)
	}
}

// removeInstance requests deletion for the instance a removed manifest
// named.
func (i *Intake) removeInstance(name string) {
	_, err := i.api.RequestDeletion(i.ctx, name)
	switch {
	case err == nil:
		logging.Debug("Intake", "manifest for %s removed, deletion requested", name)
	case apierrors.IsNotFound(err):
		logging.Debug("Intake", "manifest for unknown instance %s removed, nothing to do", name)
	default:
		logging.Error("Intake", err, "failed to request deletion for %s", name)
	}
}

// nameFromPath derives the instance name a manifest file stands for.
func nameFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".yaml")
	name = strings.TrimSuffix(name, ".yml")
	return name
}

// isYAMLFile checks if a file path is a YAML file.
func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
