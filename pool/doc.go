// Package pool provides a reusable set of worker goroutines that execute submitted tasks
// drawn from a shared FIFO queue.
//
// # Overview
//
// A Pool owns an ordered set of workers and one unbounded task queue. Each worker runs on its
// own goroutine and executes at most one task at a time. A worker carries a run-flag: while it
// is set the worker picks up new work, while it is cleared the worker finishes the task it
// holds and then waits.
//
// Key features:
//   - Direct dispatch to the first idle runnable worker, falling back to the queue
//   - FIFO order among queued tasks
//   - Workers can be added and removed at runtime; removed workers finish what they hold
//   - Per-worker and pool-wide pause and resume
//   - AwaitIdle to wait until the queue is drained and every worker is idle
//   - Panics in tasks are recovered at the worker boundary and never reach the pool
//   - Graceful, idempotent Shutdown bounded by a context
//
// # Usage
//
//	p, err := pool.NewPool(pool.DefaultPoolSize)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Shutdown(context.Background())
//
//	for i := 0; i < 100; i++ {
//		if err := p.Submit(func() { process(i) }); err != nil {
//			log.Printf("submit: %v", err)
//		}
//	}
//
//	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
//	defer cancel()
//	if err := p.AwaitIdle(ctx); err != nil {
//		log.Printf("pool did not drain: %v", err)
//	}
//
// # Queueing Work Before Starting
//
// A pool created WithStartPaused accepts tasks without running any of them, so a batch can be
// queued up front and released at once:
//
//	p, _ := pool.NewPool(8, pool.WithStartPaused())
//	for _, job := range jobs {
//		_ = p.Submit(job)
//	}
//	_ = p.StartAll()
//
// # Ordering
//
// Submit hands a task straight to an idle runnable worker when there is one, so a task may
// start before tasks that are still queued. Only tasks that had to wait are ordered: they
// leave the queue oldest first.
//
// # Errors
//
// Operations return sentinel errors that can be tested with errors.Is:
//   - ErrPoolClosed after Shutdown
//   - ErrNilTask when submitting a nil task
//   - ErrInvalidCount for negative sizes and worker counts
//   - ErrWorkerNotFound for an out-of-range worker index
//
// A task that panics is not an error of the pool. The panic is logged, counted in Stats and
// passed to the handler set with WithPanicHandler.
package pool
