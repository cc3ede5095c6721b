// Package task defines the unit of work executed by the pool's workers.
package task

// Task is a caller-supplied unit of work with no arguments and no result.
//
// A Task is owned by whichever container currently holds it: the pool's queue or a
// single worker's current-task slot. Ownership moves on dequeue and a Task is never
// shared between two workers.
//
// Any failure inside a Task is the Task's own concern. A panic raised by a Task is
// recovered at the worker boundary so it cannot take the worker down with it, but
// the Task is expected to report its own errors (logging, channels, counters).
//
// Tasks are executed concurrently by several workers, so a Task touching shared
// state must synchronise that access itself.
type Task func()
