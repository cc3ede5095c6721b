// Package metrics records what a pool does with its tasks: how they were dispatched, how they
// finished, how long they took and how many were discarded.
package metrics

import (
	"context"
	"time"
)

// Values of the dispatch attribute.
const (
	DispatchDirect = "direct"
	DispatchQueued = "queued"
)

// Values of the status attribute.
const (
	StatusOK       = "ok"
	StatusPanicked = "panicked"
)

// Values of the reason attribute.
const (
	DiscardClear    = "clear"
	DiscardDequeue  = "dequeue"
	DiscardShutdown = "shutdown"
)

// Gauges is the live view of a pool that observable gauges read at collection time.
type Gauges interface {
	QueueLen() int
	BusyWorkers() int
	Size() int
}

// MetricHandle records pool activity.
type MetricHandle interface {

	// TaskSubmitted counts an accepted task, by how it was dispatched.
	TaskSubmitted(ctx context.Context, dispatch string)

	// TaskFinished counts a task that returned (or panicked) and records its latency.
	TaskFinished(ctx context.Context, latency time.Duration, panicked bool)

	// TasksDiscarded counts tasks removed from the queue before any worker picked them up.
	TasksDiscarded(ctx context.Context, n int64, reason string)

	// ObservePool makes g the source of the queue, busy and size gauges. A handle observes one
	// pool at a time; a later call replaces the previous source.
	ObservePool(g Gauges)
}
