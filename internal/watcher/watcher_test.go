package watcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"labforge/internal/store"
	"labforge/pkg/apis/lab/v1alpha1"
)

func testInstance(name string) *v1alpha1.LabInstance {
	return &v1alpha1.LabInstance{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: v1alpha1.LabInstanceSpec{
			Template:    "kubernetes-intro",
			RequestedBy: "jdoe",
			Duration:    metav1.Duration{Duration: time.Hour},
		},
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Options{})
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	return s
}

// recorder collects delivered instances in order.
type recorder struct {
	mu    sync.Mutex
	seen  []*v1alpha1.LabInstance
	errOn string // instance name the handler fails on
}

func (r *recorder) handle(_ context.Context, inst *v1alpha1.LabInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, inst)
	if r.errOn != "" && inst.Name == r.errOn {
		return fmt.Errorf("induced failure on %s", inst.Name)
	}
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.seen))
	for i, inst := range r.seen {
		names[i] = inst.Name
	}
	return names
}

func TestPollOnceDeliversInVersionOrder(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := st.Create(testInstance(fmt.Sprintf("inst-%d", i))); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	rec := &recorder{}
	w := New(st, time.Second)
	w.AddHandler("recorder", rec.handle)

	w.PollOnce(context.Background())

	names := rec.names()
	if len(names) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(names))
	}
	for i, name := range []string{"inst-0", "inst-1", "inst-2"} {
		if names[i] != name {
			t.Errorf("delivery %d = %s, expected %s", i, names[i], name)
		}
	}
	if w.LastObserved() != st.CurrentVersion() {
		t.Errorf("cursor %d, expected %d", w.LastObserved(), st.CurrentVersion())
	}
}

func TestPollOnceDoesNotRedeliver(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.Create(testInstance("demo")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := &recorder{}
	w := New(st, time.Second)
	w.AddHandler("recorder", rec.handle)

	w.PollOnce(context.Background())
	w.PollOnce(context.Background())

	if got := len(rec.names()); got != 1 {
		t.Errorf("expected a single delivery across polls, got %d", got)
	}

	stats := w.Stats()
	if stats.Polls != 2 {
		t.Errorf("expected 2 polls, got %d", stats.Polls)
	}
	if stats.Delivered != 1 {
		t.Errorf("expected 1 delivered, got %d", stats.Delivered)
	}
}

func TestPollOnceCoalescesWritesBetweenPolls(t *testing.T) {
	st := newTestStore(t)
	created, err := st.Create(testInstance("demo"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	created.Status.Message = "one"
	mid, err := st.Update(created)
	if err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	mid.Status.Message = "two"
	if _, err := st.Update(mid); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	rec := &recorder{}
	w := New(st, time.Second)
	w.AddHandler("recorder", rec.handle)

	w.PollOnce(context.Background())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seen) != 1 {
		t.Fatalf("expected one coalesced delivery, got %d", len(rec.seen))
	}
	if rec.seen[0].Status.Message != "two" {
		t.Errorf("expected latest state, got message %q", rec.seen[0].Status.Message)
	}
}

func TestHandlerErrorDoesNotStopBatchOrChain(t *testing.T) {
	st := newTestStore(t)
	for _, name := range []string{"first", "second"} {
		if _, err := st.Create(testInstance(name)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	failing := &recorder{errOn: "first"}
	healthy := &recorder{}
	w := New(st, time.Second)
	w.AddHandler("failing", failing.handle)
	w.AddHandler("healthy", healthy.handle)

	w.PollOnce(context.Background())

	if got := len(failing.names()); got != 2 {
		t.Errorf("failing handler should still see both instances, got %d", got)
	}
	if got := len(healthy.names()); got != 2 {
		t.Errorf("healthy handler should see both instances, got %d", got)
	}
	if w.LastObserved() != st.CurrentVersion() {
		t.Errorf("cursor should advance past failed deliveries: %d != %d", w.LastObserved(), st.CurrentVersion())
	}
	if stats := w.Stats(); stats.HandlerErrors != 1 {
		t.Errorf("expected 1 handler error, got %d", stats.HandlerErrors)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.Create(testInstance("demo")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := &recorder{}
	w := New(st, time.Second)
	w.AddHandler("panicking", func(_ context.Context, inst *v1alpha1.LabInstance) error {
		panic("boom")
	})
	w.AddHandler("recorder", rec.handle)

	w.PollOnce(context.Background())

	if got := len(rec.names()); got != 1 {
		t.Errorf("handler after the panicking one should still run, got %d deliveries", got)
	}
	if stats := w.Stats(); stats.HandlerErrors != 1 {
		t.Errorf("expected panic to count as handler error, got %d", stats.HandlerErrors)
	}
}

func TestHandlersReceiveIsolatedCopies(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.Create(testInstance("demo")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	clean := &recorder{}
	w := New(st, time.Second)
	w.AddHandler("mutating", func(_ context.Context, inst *v1alpha1.LabInstance) error {
		inst.Status.Message = "mutated"
		return nil
	})
	w.AddHandler("observer", clean.handle)

	w.PollOnce(context.Background())

	clean.mu.Lock()
	defer clean.mu.Unlock()
	if len(clean.seen) != 1 {
		t.Fatalf("expected one delivery, got %d", len(clean.seen))
	}
	if clean.seen[0].Status.Message == "mutated" {
		t.Error("mutation by earlier handler leaked into later handler's copy")
	}
}

func TestCancellationMidBatchKeepsPartialProgress(t *testing.T) {
	st := newTestStore(t)
	for _, name := range []string{"first", "second"} {
		if _, err := st.Create(testInstance(name)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	var delivered []string
	w := New(st, time.Second)
	w.AddHandler("cancelling", func(_ context.Context, inst *v1alpha1.LabInstance) error {
		delivered = append(delivered, inst.Name)
		cancel() // stop the batch after the first instance
		return nil
	})

	w.PollOnce(ctx)

	if len(delivered) != 1 || delivered[0] != "first" {
		t.Fatalf("expected only the first instance before cancellation, got %v", delivered)
	}

	// The delivered instance is not redelivered; the undelivered one is.
	w2 := New(st, time.Second)
	rec := &recorder{}
	w2.AddHandler("recorder", rec.handle)
	// Same cursor as the interrupted watcher.
	w2.mu.Lock()
	w2.lastObserved = w.LastObserved()
	w2.mu.Unlock()

	w2.PollOnce(context.Background())
	names := rec.names()
	if len(names) != 1 || names[0] != "second" {
		t.Errorf("expected only the undelivered instance after resume, got %v", names)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	st := newTestStore(t)
	rec := &recorder{}
	w := New(st, 5*time.Millisecond)
	w.AddHandler("recorder", rec.handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	if _, err := st.Create(testInstance("demo")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for len(rec.names()) == 0 {
		select {
		case <-deadline:
			t.Fatal("instance was never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
