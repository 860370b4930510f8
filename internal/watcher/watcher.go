package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"labforge/internal/store"
	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// Handler consumes one observed instance. Handlers run synchronously inside
// the poll loop and receive their own deep copy of the instance.
type Handler func(ctx context.Context, inst *v1alpha1.LabInstance) error

type registration struct {
	name    string
	handler Handler
}

// Stats is a point-in-time snapshot of watcher counters.
type Stats struct {
	// Polls counts completed poll cycles, including empty ones.
	Polls int64
	// Delivered counts instances handed to the handler chain.
	Delivered int64
	// HandlerErrors counts handler invocations that returned an error or
	// panicked.
	HandlerErrors int64
	// LastObserved is the version cursor after the most recent delivery.
	LastObserved int64
}

// Watcher polls the store and fans observed instances out to handlers.
type Watcher struct {
	store    *store.Store
	interval time.Duration
	handlers []registration

	mu           sync.Mutex
	lastObserved int64
	stats        Stats
}

// New creates a Watcher polling st every interval.
func New(st *store.Store, interval time.Duration) *Watcher {
	return &Watcher{
		store:    st,
		interval: interval,
	}
}

// AddHandler registers a named handler. Registration order is invocation
// order. All handlers must be registered before Run is called.
func (w *Watcher) AddHandler(name string, h Handler) {
	w.handlers = append(w.handlers, registration{name: name, handler: h})
}

// Run polls until ctx is cancelled. An in-flight poll finishes its current
// instance before the loop exits.
func (w *Watcher) Run(ctx context.Context) {
	logging.Info("Watcher", "starting poll loop, interval %s, %d handlers", w.interval, len(w.handlers))
	wait.UntilWithContext(ctx, w.PollOnce, w.interval)
	logging.Info("Watcher", "poll loop stopped at version %d", w.LastObserved())
}

// PollOnce performs a single poll cycle: list everything newer than the
// cursor, deliver each instance to every handler in order, and advance the
// cursor past each delivered instance.
func (w *Watcher) PollOnce(ctx context.Context) {
	batch := w.store.ListSince(w.LastObserved())
	for _, inst := range batch {
		if ctx.Err() != nil {
			return
		}
		for _, reg := range w.handlers {
			w.invoke(ctx, reg, inst.DeepCopy())
		}
		w.mu.Lock()
		w.lastObserved = store.VersionOf(inst)
		w.stats.Delivered++
		w.stats.LastObserved = w.lastObserved
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.stats.Polls++
	w.mu.Unlock()
}

// invoke runs one handler on one instance, containing errors and panics so
// the rest of the chain and the batch continue.
func (w *Watcher) invoke(ctx context.Context, reg registration, inst *v1alpha1.LabInstance) {
	defer func() {
		if r := recover(); r != nil {
			w.countHandlerError()
			logging.Error("Watcher", fmt.Errorf("panic in handler: %v", r), "handler %s panicked on %s version %s", reg.name, inst.Name, inst.ResourceVersion)
		}
	}()

	if err := reg.handler(ctx, inst); err != nil {
		w.countHandlerError()
		logging.Warn("Watcher", "handler %s failed on %s version %s: %v", reg.name, inst.Name, inst.ResourceVersion, err)
	}
}

func (w *Watcher) countHandlerError() {
	w.mu.Lock()
	w.stats.HandlerErrors++
	w.mu.Unlock()
}

// LastObserved returns the current version cursor.
func (w *Watcher) LastObserved() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastObserved
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
