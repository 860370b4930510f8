// Package api is the inbound facade of the control plane.
//
// Everything that creates or deletes LabInstances from outside the control
// loop goes through ControlAPI: the intake directory, the CLI-written
// manifests it picks up, and tests. The control loop itself (controller,
// reconciler) writes to the store directly, because its writes are phase
// transitions on state it already observed, not new intent.
//
// ControlAPI owns admission:
//
//   - Create validates the spec with apimachinery field errors, defaults the
//     lease duration and stamps the initial Pending condition before the
//     store assigns the first resource version.
//   - RequestDeletion is the one external path that forces an instance into
//     the Deleting phase. It retries on write conflicts because intent, not
//     an observed version, is what the caller expressed.
//
// Reads are plain store pass-throughs and return deep copies.
package api
