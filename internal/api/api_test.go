package api

import (
	"context"
	"strings"
	"testing"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"labforge/internal/store"
	"labforge/pkg/apis/lab/v1alpha1"
)

func newAPI(t *testing.T) (*store.Store, *ControlAPI) {
	t.Helper()
	st, err := store.New(store.Options{})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return st, New(st, Options{DefaultDuration: time.Hour})
}

func manifest(name string) *v1alpha1.LabInstance {
	return &v1alpha1.LabInstance{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: v1alpha1.LabInstanceSpec{
			Template:    "kubernetes-intro",
			RequestedBy: "jdoe",
		},
	}
}

func TestCreateDefaultsAndStamps(t *testing.T) {
	_, a := newAPI(t)

	created, err := a.Create(context.Background(), manifest("alice-lab"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status.Phase != v1alpha1.LabInstancePending {
		t.Errorf("expected Pending, got %s", created.Status.Phase)
	}
	if created.Spec.Duration.Duration != time.Hour {
		t.Errorf("expected defaulted duration 1h, got %s", created.Spec.Duration.Duration)
	}
	if created.UID == "" || created.ResourceVersion == "" {
		t.Errorf("expected store identity to be stamped, got uid=%q version=%q", created.UID, created.ResourceVersion)
	}
	cond := v1alpha1.PhaseCondition(created, v1alpha1.LabInstancePending)
	if cond == nil || cond.Reason != v1alpha1.ReasonCreated {
		t.Errorf("expected Pending condition with reason %s, got %+v", v1alpha1.ReasonCreated, cond)
	}
	if !strings.Contains(cond.Message, "jdoe") {
		t.Errorf("expected requester in condition message, got %q", cond.Message)
	}
}

func TestCreateKeepsExplicitDuration(t *testing.T) {
	_, a := newAPI(t)

	m := manifest("short-lab")
	m.Spec.Duration = metav1.Duration{Duration: 30 * time.Minute}
	created, err := a.Create(context.Background(), m)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Spec.Duration.Duration != 30*time.Minute {
		t.Errorf("explicit duration must survive, got %s", created.Spec.Duration.Duration)
	}
}

func TestCreateRejectsInvalidSpecs(t *testing.T) {
	_, a := newAPI(t)

	tests := []struct {
		name   string
		mutate func(*v1alpha1.LabInstance)
	}{
		{"missing name", func(in *v1alpha1.LabInstance) { in.Name = "" }},
		{"uppercase name", func(in *v1alpha1.LabInstance) { in.Name = "Alice-Lab" }},
		{"underscore name", func(in *v1alpha1.LabInstance) { in.Name = "alice_lab" }},
		{"missing template", func(in *v1alpha1.LabInstance) { in.Spec.Template = "" }},
		{"missing requester", func(in *v1alpha1.LabInstance) { in.Spec.RequestedBy = "" }},
		{"negative duration", func(in *v1alpha1.LabInstance) {
			in.Spec.Duration = metav1.Duration{Duration: -time.Minute}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := manifest("valid-name")
			tt.mutate(m)
			if _, err := a.Create(context.Background(), m); !apierrors.IsInvalid(err) {
				t.Errorf("expected Invalid error, got %v", err)
			}
		})
	}
}

func TestCreateCollectsAllFieldErrors(t *testing.T) {
	_, a := newAPI(t)

	m := manifest("bad")
	m.Spec.Template = ""
	m.Spec.RequestedBy = ""
	_, err := a.Create(context.Background(), m)
	if !apierrors.IsInvalid(err) {
		t.Fatalf("expected Invalid error, got %v", err)
	}
	status := err.(apierrors.APIStatus).Status()
	if status.Details == nil || len(status.Details.Causes) != 2 {
		t.Errorf("expected both field errors to be reported, got %+v", status.Details)
	}
}

func TestCreateDiscardsCallerStatus(t *testing.T) {
	_, a := newAPI(t)

	m := manifest("sneaky-lab")
	m.Status.Phase = v1alpha1.LabInstanceReady
	m.Status.Endpoint = "https://forged.example.com"
	created, err := a.Create(context.Background(), m)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status.Phase != v1alpha1.LabInstancePending {
		t.Errorf("caller-set phase must be discarded, got %s", created.Status.Phase)
	}
	if created.Status.Endpoint != "" {
		t.Errorf("caller-set endpoint must be discarded, got %q", created.Status.Endpoint)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	_, a := newAPI(t)

	if _, err := a.Create(context.Background(), manifest("twin-lab")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := a.Create(context.Background(), manifest("twin-lab")); !apierrors.IsAlreadyExists(err) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
}

func TestRequestDeletionForcesDeleting(t *testing.T) {
	_, a := newAPI(t)

	created, err := a.Create(context.Background(), manifest("doomed-lab"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := a.RequestDeletion(context.Background(), "doomed-lab")
	if err != nil {
		t.Fatalf("RequestDeletion failed: %v", err)
	}
	if deleted.Status.Phase != v1alpha1.LabInstanceDeleting {
		t.Fatalf("expected Deleting, got %s", deleted.Status.Phase)
	}
	if deleted.Status.DeletingStartedAt == nil {
		t.Error("expected DeletingStartedAt to be stamped")
	}
	if deleted.ResourceVersion == created.ResourceVersion {
		t.Error("expected a version-bumping write")
	}
	cond := v1alpha1.PhaseCondition(deleted, v1alpha1.LabInstanceDeleting)
	if cond == nil || cond.Reason != v1alpha1.ReasonDeletionRequested {
		t.Errorf("expected Deleting condition with reason %s, got %+v", v1alpha1.ReasonDeletionRequested, cond)
	}
}

func TestRequestDeletionIsIdempotent(t *testing.T) {
	_, a := newAPI(t)

	if _, err := a.Create(context.Background(), manifest("twice-lab")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	first, err := a.RequestDeletion(context.Background(), "twice-lab")
	if err != nil {
		t.Fatalf("first RequestDeletion failed: %v", err)
	}
	second, err := a.RequestDeletion(context.Background(), "twice-lab")
	if err != nil {
		t.Fatalf("second RequestDeletion failed: %v", err)
	}
	if second.ResourceVersion != first.ResourceVersion {
		t.Error("repeated deletion requests must not write again")
	}
}

func TestRequestDeletionLeavesTerminalAlone(t *testing.T) {
	st, a := newAPI(t)

	created, err := a.Create(context.Background(), manifest("done-lab"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	created.Status.Phase = v1alpha1.LabInstanceFailed
	created.Status.Message = "boom"
	failed, err := st.Update(created)
	if err != nil {
		t.Fatalf("failed to seed terminal phase: %v", err)
	}

	got, err := a.RequestDeletion(context.Background(), "done-lab")
	if err != nil {
		t.Fatalf("RequestDeletion on terminal instance must succeed: %v", err)
	}
	if got.Status.Phase != v1alpha1.LabInstanceFailed || got.ResourceVersion != failed.ResourceVersion {
		t.Errorf("terminal instance must be untouched, got phase=%s version=%s", got.Status.Phase, got.ResourceVersion)
	}
}

func TestRequestDeletionNotFound(t *testing.T) {
	_, a := newAPI(t)

	if _, err := a.RequestDeletion(context.Background(), "ghost-lab"); !apierrors.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
