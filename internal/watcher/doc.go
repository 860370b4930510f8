// Package watcher turns the store's version sequence into an event stream.
//
// The watcher remembers the highest resource version it has delivered and
// periodically asks the store for everything newer. Each returned instance is
// handed to every registered handler, in registration order, as a private
// deep copy. Because versions are globally monotonic, a single int64 cursor
// is all the bookkeeping the watcher needs.
//
// # Delivery Semantics
//
// Instances are delivered in version order within a poll. Writes that land
// between two polls coalesce: the watcher sees only the latest state of each
// instance, once. A write always surfaces in some later poll (completeness),
// but intermediate states may never be observed.
//
// The cursor advances after an instance's handlers return, one instance at a
// time. If the process stops mid-batch, instances already handled are not
// redelivered on the next poll and instances not yet reached are.
//
// # Handler Isolation
//
// A handler returning an error or panicking is logged and counted; it never
// stops the batch, the remaining handlers, or the poll loop. Handlers that
// need redelivery-style retries rely on the reconciler's periodic full scan
// instead.
package watcher
