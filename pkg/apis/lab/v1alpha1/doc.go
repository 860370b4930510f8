// Package v1alpha1 contains API Schema definitions for the lab v1alpha1 API group.
//
// This package defines the resource types managed by the labforge control
// loop. The v1alpha1 API version represents the initial alpha release of the
// labforge API and is subject to change.
//
// # API Group: lab.labforge.io/v1alpha1
//
// ## LabInstance
//
// LabInstance represents one short-lived lab environment requested by a user.
// The spec describes what to launch and for how long; the status is owned by
// the control loop and tracks the instance through its lifecycle phases
// (Pending, Provisioning, Ready, Deleting, Deleted, Failed).
//
// The spec is immutable after creation. To change a running lab, delete the
// instance and create a new one.
//
// Example:
//
//	apiVersion: lab.labforge.io/v1alpha1
//	kind: LabInstance
//	metadata:
//	  name: kubernetes-intro-jdoe
//	spec:
//	  template: kubernetes-intro
//	  requestedBy: jdoe
//	  duration: 2h
//	  parameters:
//	    region: eu-west-1
//	    size: small
//
// +kubebuilder:object:generate=true
// +groupName=lab.labforge.io
package v1alpha1
