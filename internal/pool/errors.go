package pool

import "errors"

var (
	// ErrPoolClosed is returned by every mutating operation once Shutdown has been called.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrNilTask is returned by Submit when given a nil task.
	ErrNilTask = errors.New("task is nil")

	// ErrInvalidCount is returned when a negative number of workers is requested.
	ErrInvalidCount = errors.New("worker count must not be negative")

	// ErrWorkerNotFound is returned when a worker index is out of range.
	ErrWorkerNotFound = errors.New("worker not found")
)
