package pool

import (
	"context"

	"github.com/pgvanniekerk/ezpool/internal/pool"
	"github.com/pgvanniekerk/ezpool/internal/worker"
	"github.com/pgvanniekerk/ezpool/task"
)

// Stats is a point-in-time snapshot of a pool.
type Stats = pool.Stats

// WorkerStatus is a point-in-time snapshot of one worker.
type WorkerStatus = worker.Status

// Pool defines the interface of a worker pool.
// Implementations must be safe for concurrent use by any number of goroutines.
type Pool interface {

	// Submit hands a task to the first idle runnable worker or, when none is free, appends it
	// to the queue. It returns ErrNilTask for a nil task and ErrPoolClosed after Shutdown.
	Submit(task.Task) error

	// Dequeue removes the oldest queued task without running it.
	// The boolean is false when the queue is empty.
	Dequeue() (task.Task, bool)

	// Clear discards every queued task and returns how many were dropped.
	// Tasks already held by workers still run.
	Clear() int

	// AddWorkers creates and launches n workers. A negative n returns ErrInvalidCount.
	AddWorkers(n int) error

	// RemoveWorkers terminates the last min(n, size) workers and returns how many were
	// removed. Tasks they hold run to completion.
	RemoveWorkers(n int) (int, error)

	// StartAll makes every worker eligible to pick up work.
	StartAll() error

	// StopAll pauses every worker once its current task returns.
	StopAll() error

	// StartWorker makes the worker at index i eligible to pick up work.
	// An out-of-range index returns ErrWorkerNotFound.
	StartWorker(i int) error

	// StopWorker pauses the worker at index i once its current task returns.
	// An out-of-range index returns ErrWorkerNotFound.
	StopWorker(i int) error

	// AwaitIdle blocks until the queue is empty and no worker holds a task, or ctx ends.
	AwaitIdle(ctx context.Context) error

	// Shutdown terminates all workers, discards queued tasks and waits for the workers to
	// exit, bounded by ctx. It is idempotent.
	Shutdown(ctx context.Context) error

	// Stats returns a snapshot of the pool and every worker.
	Stats() Stats

	// WorkerStatus returns a snapshot of the worker at index i.
	WorkerStatus(i int) (WorkerStatus, error)
}
