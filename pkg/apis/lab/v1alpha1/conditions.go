package v1alpha1

import (
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Condition reasons recorded by the control loop.
const (
	ReasonCreated              = "Created"
	ReasonProvisioningStarted  = "ProvisioningStarted"
	ReasonProvisioned          = "Provisioned"
	ReasonProvisionFailed      = "ProvisionFailed"
	ReasonExpired              = "Expired"
	ReasonDeletionRequested    = "DeletionRequested"
	ReasonDeleted              = "Deleted"
	ReasonTeardownFailed       = "TeardownFailed"
	ReasonProvisioningTimedOut = "ProvisioningTimedOut"
	ReasonTeardownTimedOut     = "TeardownTimedOut"
)

// SetPhaseCondition records that inst entered phase. The condition type is
// the phase name; because phases never repeat, the conditions list grows
// append-only and reads as the instance's transition history.
func SetPhaseCondition(inst *LabInstance, phase LabInstancePhase, reason, message string, now metav1.Time) {
	meta.SetStatusCondition(&inst.Status.Conditions, metav1.Condition{
		Type:               string(phase),
		Status:             metav1.ConditionTrue,
		ObservedGeneration: inst.Generation,
		LastTransitionTime: now,
		Reason:             reason,
		Message:            message,
	})
}

// PhaseCondition returns the condition recorded when inst entered phase, or
// nil if that phase was never entered.
func PhaseCondition(inst *LabInstance, phase LabInstancePhase) *metav1.Condition {
	return meta.FindStatusCondition(inst.Status.Conditions, string(phase))
}
