package events

import (
	"time"

	"k8s.io/apimachinery/pkg/types"

	"labforge/pkg/apis/lab/v1alpha1"
)

// EventType represents the severity of a recorded event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

// LabInstance lifecycle event reasons
const (
	// ReasonInstanceCreated indicates a LabInstance was accepted into the
	// store in the Pending phase.
	ReasonInstanceCreated EventReason = "InstanceCreated"

	// ReasonProvisioningStarted indicates a controller claimed the
	// instance and provisioning began.
	ReasonProvisioningStarted EventReason = "InstanceProvisioning"

	// ReasonInstanceReady indicates the lab environment came up and is
	// reachable at its endpoint.
	ReasonInstanceReady EventReason = "InstanceReady"

	// ReasonTeardownStarted indicates teardown began, whether requested
	// or forced by lease expiry.
	ReasonTeardownStarted EventReason = "InstanceDeleting"

	// ReasonInstanceDeleted indicates the lab environment was torn down
	// completely.
	ReasonInstanceDeleted EventReason = "InstanceDeleted"

	// ReasonInstanceFailed indicates the instance ended up in the Failed
	// phase.
	ReasonInstanceFailed EventReason = "InstanceFailed"
)

// Event is one recorded lifecycle observation.
type Event struct {
	// Type is the severity of the event.
	Type EventType `json:"type"`

	// Reason is the machine-readable reason code.
	Reason EventReason `json:"reason"`

	// Name is the instance the event is about.
	Name string `json:"name"`

	// UID pins the event to one incarnation of the name.
	UID types.UID `json:"uid"`

	// Phase is the phase the instance was observed in.
	Phase v1alpha1.LabInstancePhase `json:"phase"`

	// Message is the rendered human-readable message.
	Message string `json:"message"`

	// ResourceVersion is the version of the write that was observed.
	ResourceVersion string `json:"resourceVersion"`

	// Time is when the recorder observed the transition.
	Time time.Time `json:"time"`
}

// EventData holds contextual information for event message templating.
type EventData struct {
	// Name is the name of the instance involved in the event.
	Name string

	// Template is the lab template the instance was created from.
	Template string

	// RequestedBy is the user the instance belongs to.
	RequestedBy string

	// Endpoint is the rendered access endpoint, when one exists.
	Endpoint string

	// Detail carries the instance's status message, when one exists.
	Detail string

	// Error contains error information for failure events.
	Error string
}

// reasonFor maps an observed phase to its event reason.
func reasonFor(phase v1alpha1.LabInstancePhase) EventReason {
	switch phase {
	case v1alpha1.LabInstanceProvisioning:
		return ReasonProvisioningStarted
	case v1alpha1.LabInstanceReady:
		return ReasonInstanceReady
	case v1alpha1.LabInstanceDeleting:
		return ReasonTeardownStarted
	case v1alpha1.LabInstanceDeleted:
		return ReasonInstanceDeleted
	case v1alpha1.LabInstanceFailed:
		return ReasonInstanceFailed
	default:
		return ReasonInstanceCreated
	}
}

// getEventType returns the appropriate EventType for a given EventReason.
func getEventType(reason EventReason) EventType {
	switch reason {
	case ReasonInstanceFailed:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}
