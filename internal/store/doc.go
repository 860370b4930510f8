// Package store implements the versioned resource store at the center of the
// labforge control loop.
//
// The store holds LabInstance resources in memory and stamps every successful
// write with a resource version drawn from a single, globally monotonic
// counter. Versions across all instances form one total order, which is what
// lets the watcher ask "everything newer than the last version I saw" with a
// single comparison.
//
// # Concurrency Model
//
// One RWMutex guards the instance map and the version counter. Every object
// handed out is a deep copy made under the lock, so readers never share
// memory with the store or with each other. Writers carry the resource
// version of the copy they read; an Update whose version no longer matches
// the stored one fails with a Conflict error and nothing changes. Losing that
// race is normal operation, not a fault.
//
// # Error Taxonomy
//
// The store reports failures through k8s.io/apimachinery API status errors:
// NewNotFound, NewAlreadyExists, NewConflict and NewInvalid. Callers branch
// with the matching errors.IsNotFound / IsAlreadyExists / IsConflict /
// IsInvalid predicates instead of string matching.
//
// # Snapshots
//
// When configured with a snapshot directory, the store writes each instance
// through to <dir>/labinstances/<name>.yaml after every successful write and
// removes the file on Delete. On startup existing snapshots are loaded back
// and the version counter resumes above the highest persisted version, so a
// restarted process continues the same version sequence. Snapshot IO failures
// are logged, never fatal; the in-memory state is authoritative.
package store
