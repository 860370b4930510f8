// Package controller drives LabInstance resources through their lifecycle.
//
// The controller is the primary watcher handler. For every observed instance
// it consults the phase and either does nothing or performs exactly one of
// two moves: claim the Pending→Provisioning transition, or make sure a
// teardown is running for a Deleting instance. Everything else — completion,
// failure, expiry — arrives back through the store as later observations.
//
// # Exactly-Once Side Effects
//
// The store write claiming a transition happens before the side effect is
// dispatched, never after. Whoever wins the optimistic-concurrency race owns
// the side effect; losers see a Conflict and walk away. Since the watcher
// only ever delivers current state, a claimed instance is next observed in
// its claimed phase and no second dispatch can happen. Teardown dispatch is
// additionally deduplicated by instance UID because Deleting stays observable
// while the teardown runs.
//
// # Asynchronous Completion
//
// Provision and teardown run in goroutines with per-operation deadlines so
// the poll loop never blocks on the backend. A completion re-reads the
// instance and applies the outcome only if the phase it claimed is still
// current, retrying around conflicts; if the world moved on (force-deletion,
// reconciler timeout), the outcome is discarded and, where an environment
// actually came up, a compensating teardown is dispatched. Completions
// abandoned by process shutdown write nothing; the reconciler's timeout rules
// settle such instances on a later run.
package controller
