// Package reconciler periodically audits every stored LabInstance and
// repairs the drift the event-driven path cannot see.
//
// The watcher/controller pair only reacts to writes. Anything that stops
// producing writes falls out of that loop: a provisioner call that died with
// the process, or a claim that was forfeited during shutdown. Leases add a
// second class of drift that no write announces, because expiry is a point
// in time rather than an event. The reconciler closes both gaps with a full
// scan of the store on a fixed interval.
//
// # Rules
//
// Each scan applies at most one correction per instance:
//
//   - Provisioning longer than the provisioning timeout becomes Failed.
//   - Deleting longer than the deleting timeout becomes Failed.
//   - Ready past its lease expiry becomes Deleting. The controller observes
//     that write and dispatches the actual teardown.
//   - Pending older than the requeue age gets a version-bumping touch so the
//     watcher delivers it again. The touch repeats on every scan until some
//     controller claims the instance.
//   - Failed and Deleted instances older than the retention window are
//     removed from the store entirely.
//
// # Concurrency
//
// The reconciler writes through the same optimistic concurrency gate as
// every other actor. A conflict means somebody else made progress first, so
// the instance is skipped and the next scan re-evaluates whatever state won.
// The reconciler never calls the provisioner; it only rewrites state and
// lets the controller react to it.
package reconciler
