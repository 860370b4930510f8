package events

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"labforge/pkg/apis/lab/v1alpha1"
)

func observed(name string, uid types.UID, version string, phase v1alpha1.LabInstancePhase) *v1alpha1.LabInstance {
	return &v1alpha1.LabInstance{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name,
			UID:             uid,
			ResourceVersion: version,
		},
		Spec: v1alpha1.LabInstanceSpec{
			Template:    "kubernetes-intro",
			RequestedBy: "jdoe",
			Duration:    metav1.Duration{Duration: time.Hour},
		},
		Status: v1alpha1.LabInstanceStatus{Phase: phase},
	}
}

func TestRecorderRecordsPhaseTransitions(t *testing.T) {
	r := NewRecorder(RecorderOptions{})
	ctx := context.Background()

	steps := []struct {
		version string
		phase   v1alpha1.LabInstancePhase
		mutate  func(*v1alpha1.LabInstance)
		reason  EventReason
	}{
		{"1", v1alpha1.LabInstancePending, nil, ReasonInstanceCreated},
		{"2", v1alpha1.LabInstanceProvisioning, nil, ReasonProvisioningStarted},
		{"3", v1alpha1.LabInstanceReady, func(in *v1alpha1.LabInstance) {
			in.Status.Endpoint = "https://alice.labs.example.com"
		}, ReasonInstanceReady},
		{"4", v1alpha1.LabInstanceDeleting, func(in *v1alpha1.LabInstance) {
			in.Status.Message = "lease expired at 2026-03-01T10:00:00Z"
		}, ReasonTeardownStarted},
		{"5", v1alpha1.LabInstanceDeleted, nil, ReasonInstanceDeleted},
	}

	for _, step := range steps {
		inst := observed("alice-lab", "uid-1", step.version, step.phase)
		if step.mutate != nil {
			step.mutate(inst)
		}
		if err := r.HandleEvent(ctx, inst); err != nil {
			t.Fatalf("HandleEvent(%s) failed: %v", step.phase, err)
		}
	}

	got := r.List(0)
	if len(got) != len(steps) {
		t.Fatalf("expected %d events, got %d", len(steps), len(got))
	}
	for i, step := range steps {
		if got[i].Reason != step.reason {
			t.Errorf("event %d: expected reason %s, got %s", i, step.reason, got[i].Reason)
		}
		if got[i].ResourceVersion != step.version {
			t.Errorf("event %d: expected version %s, got %s", i, step.version, got[i].ResourceVersion)
		}
	}
	if !strings.Contains(got[2].Message, "https://alice.labs.example.com") {
		t.Errorf("ready message should carry the endpoint, got %q", got[2].Message)
	}
	if !strings.Contains(got[3].Message, "lease expired") {
		t.Errorf("teardown message should carry the detail, got %q", got[3].Message)
	}
}

func TestSamePhaseRedeliveryIsQuiet(t *testing.T) {
	r := NewRecorder(RecorderOptions{})
	ctx := context.Background()

	if err := r.HandleEvent(ctx, observed("bob-lab", "uid-2", "1", v1alpha1.LabInstancePending)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	// A message-only touch bumps the version but keeps the phase.
	if err := r.HandleEvent(ctx, observed("bob-lab", "uid-2", "2", v1alpha1.LabInstancePending)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if got := len(r.List(0)); got != 1 {
		t.Fatalf("expected 1 event after redelivery, got %d", got)
	}
	if r.Total() != 1 {
		t.Errorf("expected total 1, got %d", r.Total())
	}
}

func TestFailedEventIsWarning(t *testing.T) {
	r := NewRecorder(RecorderOptions{})

	inst := observed("broken-lab", "uid-3", "7", v1alpha1.LabInstanceFailed)
	inst.Status.Message = "provisioning did not finish within 5m0s"
	if err := r.HandleEvent(context.Background(), inst); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	got := r.List(0)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != EventTypeWarning {
		t.Errorf("expected Warning, got %s", got[0].Type)
	}
	if !strings.Contains(got[0].Message, "did not finish") {
		t.Errorf("failure message should carry the error, got %q", got[0].Message)
	}
}

func TestRingDropsOldestEvents(t *testing.T) {
	r := NewRecorder(RecorderOptions{Capacity: 4})
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		uid := types.UID(fmt.Sprintf("uid-%d", i))
		name := fmt.Sprintf("lab-%d", i)
		if err := r.HandleEvent(ctx, observed(name, uid, "1", v1alpha1.LabInstancePending)); err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
	}

	got := r.List(0)
	if len(got) != 4 {
		t.Fatalf("expected ring capped at 4, got %d", len(got))
	}
	if got[0].Name != "lab-2" || got[3].Name != "lab-5" {
		t.Errorf("expected oldest events dropped, got first=%s last=%s", got[0].Name, got[3].Name)
	}
	if r.Total() != 6 {
		t.Errorf("total should count dropped events, got %d", r.Total())
	}

	latest := r.List(2)
	if len(latest) != 2 || latest[0].Name != "lab-4" || latest[1].Name != "lab-5" {
		t.Errorf("List(2) should return the two newest in order, got %+v", latest)
	}
}

func TestTemplateEngineConditionals(t *testing.T) {
	engine := NewMessageTemplateEngine()

	withEndpoint := engine.Render(ReasonInstanceReady, EventData{Name: "x", Endpoint: "https://x.example.com"})
	if withEndpoint != "Lab instance x is ready at https://x.example.com" {
		t.Errorf("unexpected render %q", withEndpoint)
	}

	withoutEndpoint := engine.Render(ReasonInstanceReady, EventData{Name: "x"})
	if withoutEndpoint != "Lab instance x is ready" {
		t.Errorf("unexpected render %q", withoutEndpoint)
	}

	unknown := engine.Render(EventReason("Bogus"), EventData{Name: "x"})
	if !strings.Contains(unknown, "Bogus") {
		t.Errorf("unknown reason should fall back to a generic message, got %q", unknown)
	}
}

func TestTemplateOverride(t *testing.T) {
	r := NewRecorder(RecorderOptions{})
	r.SetTemplate(ReasonInstanceCreated, "accepted {{.Name}} for {{.RequestedBy}}")

	if err := r.HandleEvent(context.Background(), observed("short-lab", "uid-9", "1", v1alpha1.LabInstancePending)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	got := r.List(0)
	if len(got) != 1 || got[0].Message != "accepted short-lab for jdoe" {
		t.Errorf("expected overridden template to render, got %+v", got)
	}
}
