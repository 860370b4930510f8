package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// LabInstancePhase describes where a LabInstance is in its lifecycle.
// Phases only move forward: Pending, Provisioning, Ready, Deleting, Deleted.
// Failed is reachable from any non-terminal phase. Deleted and Failed are
// terminal; an instance in a terminal phase never transitions again.
// +kubebuilder:validation:Enum=Pending;Provisioning;Ready;Deleting;Deleted;Failed
type LabInstancePhase string

const (
	// LabInstancePending means the instance has been accepted but no
	// provisioning work has started yet.
	LabInstancePending LabInstancePhase = "Pending"

	// LabInstanceProvisioning means the lab environment is being created.
	LabInstanceProvisioning LabInstancePhase = "Provisioning"

	// LabInstanceReady means the lab environment is up and reachable at
	// the endpoint recorded in the status.
	LabInstanceReady LabInstancePhase = "Ready"

	// LabInstanceDeleting means the lab environment is being torn down,
	// either because its duration elapsed or because deletion was requested.
	LabInstanceDeleting LabInstancePhase = "Deleting"

	// LabInstanceDeleted means teardown completed. Terminal.
	LabInstanceDeleted LabInstancePhase = "Deleted"

	// LabInstanceFailed means provisioning or teardown failed permanently,
	// or the instance exceeded an operation timeout. Terminal.
	LabInstanceFailed LabInstancePhase = "Failed"
)

// Terminal reports whether the phase is a terminal sink. Terminal instances
// accept no further transitions and trigger no further side effects.
func (p LabInstancePhase) Terminal() bool {
	return p == LabInstanceDeleted || p == LabInstanceFailed
}

// LabInstanceSpec defines the desired state of LabInstance.
// All spec fields are immutable after creation.
type LabInstanceSpec struct {
	// Template names the lab template to launch, for example
	// "kubernetes-intro" or "linux-forensics".
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Template string `json:"template" yaml:"template"`

	// RequestedBy identifies the user the lab environment is provisioned for.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	RequestedBy string `json:"requestedBy" yaml:"requestedBy"`

	// Duration is how long the instance remains available once it becomes
	// Ready. When it elapses the control loop tears the environment down.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Type=string
	// +kubebuilder:validation:Format=duration
	Duration metav1.Duration `json:"duration" yaml:"duration"`

	// Parameters holds optional template parameters passed through to the
	// provisioner, such as region or machine size.
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// LabInstanceStatus defines the observed state of LabInstance.
// The status is owned by the control loop; users only write the spec.
type LabInstanceStatus struct {
	// Phase is the current lifecycle phase. An empty phase is treated
	// as Pending.
	Phase LabInstancePhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// Message holds human-readable detail about the current phase, such as
	// the failure reason for Failed instances.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Endpoint is the URL the lab environment is reachable at. Set when the
	// instance becomes Ready.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// ProvisioningStartedAt records when provisioning was dispatched.
	ProvisioningStartedAt *metav1.Time `json:"provisioningStartedAt,omitempty" yaml:"provisioningStartedAt,omitempty"`

	// ReadyAt records when the instance became Ready. The instance expires
	// at ReadyAt + spec.duration.
	ReadyAt *metav1.Time `json:"readyAt,omitempty" yaml:"readyAt,omitempty"`

	// DeletingStartedAt records when teardown was requested.
	DeletingStartedAt *metav1.Time `json:"deletingStartedAt,omitempty" yaml:"deletingStartedAt,omitempty"`

	// Conditions records one condition per phase the instance has entered,
	// in order. Because phases only move forward, condition types never
	// repeat and the list is an append-only trail of the instance's history.
	Conditions []metav1.Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=lab
// +kubebuilder:printcolumn:name="Template",type="string",JSONPath=".spec.template"
// +kubebuilder:printcolumn:name="Requested By",type="string",JSONPath=".spec.requestedBy"
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase"
// +kubebuilder:printcolumn:name="Endpoint",type="string",JSONPath=".status.endpoint"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// LabInstance is the Schema for the labinstances API
type LabInstance struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   LabInstanceSpec   `json:"spec,omitempty"`
	Status LabInstanceStatus `json:"status,omitempty"`
}

// EffectivePhase returns the status phase, normalizing the empty phase of a
// freshly written object to Pending.
func (in *LabInstance) EffectivePhase() LabInstancePhase {
	if in.Status.Phase == "" {
		return LabInstancePending
	}
	return in.Status.Phase
}

// ExpiresAt returns the time the instance's requested duration elapses, or
// the zero time if the instance never became Ready.
func (in *LabInstance) ExpiresAt() metav1.Time {
	if in.Status.ReadyAt == nil {
		return metav1.Time{}
	}
	return metav1.NewTime(in.Status.ReadyAt.Add(in.Spec.Duration.Duration))
}

// +kubebuilder:object:root=true

// LabInstanceList contains a list of LabInstance
type LabInstanceList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []LabInstance `json:"items"`
}
