// Package provision defines the seam between the control loop and whatever
// actually creates lab environments.
//
// The controller is the only caller of this seam: it dispatches exactly one
// Provision per instance leaving Pending and one Teardown per instance
// leaving Deleting. Implementations must be cancellable through the passed
// context and must return *Error values so callers can distinguish
// provisioning from teardown failures and recognize cancellation.
//
// The bundled Local provisioner simulates a backend: it waits a configurable
// delay, enforces a template allow-list and an active-environment quota, and
// renders the instance endpoint from a text/template with the sprig function
// map. It exists so a labforge process is fully exercisable without real
// infrastructure; deployments point the controller at their own Provisioner
// implementation instead.
package provision
