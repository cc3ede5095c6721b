// Package pool implements the orchestrator that owns a set of workers and the queue they
// draw from.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jacobsa/timeutil"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/logger"
	"github.com/pgvanniekerk/ezpool/internal/metrics"
	"github.com/pgvanniekerk/ezpool/internal/taskqueue"
	"github.com/pgvanniekerk/ezpool/internal/worker"
	"github.com/pgvanniekerk/ezpool/task"
)

// Options configure a Pool. Zero values select the defaults.
type Options struct {

	// StartPaused creates workers with their run-flag cleared.
	StartPaused bool

	// AwaitPollInterval is how often AwaitIdle re-checks the pool.
	AwaitPollInterval time.Duration

	// AwaitTimeout bounds AwaitIdle when positive.
	AwaitTimeout time.Duration

	// ShutdownTimeout bounds the wait for worker loops in Shutdown when positive.
	ShutdownTimeout time.Duration

	// PanicHandler is called with the value recovered from a panicking task.
	PanicHandler func(any)

	Logger  *slog.Logger
	Metrics metrics.MetricHandle
	Clock   timeutil.Clock
}

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	ID string

	// Workers is the number of workers in the set. Retiring workers are not included.
	Workers int

	// Queued is the number of tasks waiting for a free worker.
	Queued int

	// Busy is the number of workers in the set holding a task.
	Busy int

	// Paused is the number of workers in the set with their run-flag cleared.
	Paused int

	// Retiring is the number of removed workers still finishing a task.
	Retiring int

	Submitted int64
	Completed int64
	Panicked  int64

	// WorkerStatus holds one entry per worker in the set, in index order.
	WorkerStatus []worker.Status
}

// Pool owns an ordered set of workers and the TaskQueue they refill from.
//
// Submitted tasks go straight to the first idle runnable worker, in index order. Only when no
// worker can take a task is it queued, so a task submitted while a worker is idle may start
// before older queued tasks. Queued tasks leave the queue in FIFO order.
//
// Workers never call back into the pool. They drain the queue themselves through the
// worker.Source interface and report completions through worker.Observer, which the pool
// implements with atomic counters only.
type Pool struct {

	// id identifies this pool instance in logs and stats.
	id string

	// queue buffers tasks until a worker is free.
	queue *taskqueue.TaskQueue

	// workersMutex guards workers, retiring and nextID. Submit holds it for reading, so a
	// Submit racing Shutdown either lands before the workers are terminated or is rejected.
	workersMutex *sync.RWMutex

	// workers is the ordered worker set. A worker's index is its position here.
	workers []*worker.Worker

	// retiring holds removed workers whose loop has not exited yet. AwaitIdle still waits
	// for the tasks they hold.
	retiring map[*worker.Worker]struct{}

	// nextID numbers workers for logging. It only ever grows.
	nextID int

	// closed is set by Shutdown and never cleared.
	closed *atomic.Bool

	submitted *atomic.Int64
	completed *atomic.Int64
	panicked  *atomic.Int64

	opts    Options
	logger  *slog.Logger
	metrics metrics.MetricHandle
}

//region Implementation

// Submit hands t to the first idle runnable worker or, when there is none, appends it to the
// queue. It fails with ErrNilTask for a nil task and ErrPoolClosed after Shutdown.
func (p *Pool) Submit(t task.Task) error {
	if t == nil {
		return ErrNilTask
	}

	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()

	if p.isClosed() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)

	// Direct dispatch: first idle, runnable worker in index order.
	for _, w := range p.workers {
		if w.Offer(t) {
			p.metrics.TaskSubmitted(context.Background(), metrics.DispatchDirect)
			return nil
		}
	}

	// Nobody is free. The next worker to finish or start picks it up.
	p.queue.Push(t)
	p.metrics.TaskSubmitted(context.Background(), metrics.DispatchQueued)
	return nil
}

// Dequeue removes and returns the oldest queued task without running it.
func (p *Pool) Dequeue() (task.Task, bool) {
	t, ok := p.queue.PopFront()
	if ok {
		p.metrics.TasksDiscarded(context.Background(), 1, metrics.DiscardDequeue)
	}
	return t, ok
}

// Clear discards every queued task and returns how many were dropped. Tasks already held
// by a worker still run.
func (p *Pool) Clear() int {
	dropped := p.queue.Clear()
	p.metrics.TasksDiscarded(context.Background(), int64(dropped), metrics.DiscardClear)
	if dropped > 0 {
		p.logger.Debug("cleared queue", "dropped", dropped)
	}
	return dropped
}

// AddWorkers creates n workers, binds them to the queue and launches them. New workers are
// runnable unless the pool was configured to start them paused; a runnable worker starts
// draining the queue immediately.
func (p *Pool) AddWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("add %d workers: %w", n, ErrInvalidCount)
	}

	p.workersMutex.Lock()
	defer p.workersMutex.Unlock()

	if p.isClosed() {
		return ErrPoolClosed
	}

	for i := 0; i < n; i++ {
		w := worker.New(p.nextID, p.queue, worker.Options{
			Running:      !p.opts.StartPaused,
			Logger:       p.logger,
			PanicHandler: p.opts.PanicHandler,
			Observer:     p,
			Clock:        p.opts.Clock,
		})
		p.nextID++

		if err := w.Spawn(); err != nil {
			return fmt.Errorf("spawn worker %d: %w", w.ID(), err)
		}
		p.workers = append(p.workers, w)
	}

	if n > 0 {
		p.logger.Debug("added workers", "added", n, "workers", len(p.workers))
	}
	return nil
}

// RemoveWorkers terminates the last min(n, size) workers and returns how many were removed.
// A removed worker finishes the task it holds before its loop exits; it does not take more
// work from the queue.
func (p *Pool) RemoveWorkers(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("remove %d workers: %w", n, ErrInvalidCount)
	}

	p.workersMutex.Lock()
	defer p.workersMutex.Unlock()

	if p.isClosed() {
		return 0, ErrPoolClosed
	}

	removed := min(n, len(p.workers))
	keep := len(p.workers) - removed
	for _, w := range p.workers[keep:] {
		p.retire(w)
	}
	clear(p.workers[keep:])
	p.workers = p.workers[:keep]

	if removed > 0 {
		p.logger.Debug("removed workers", "removed", removed, "workers", len(p.workers))
	}
	return removed, nil
}

// StartAll sets the run-flag of every worker.
func (p *Pool) StartAll() error {
	return p.forEachWorker((*worker.Worker).Start)
}

// StopAll clears the run-flag of every worker. Tasks being executed run to completion.
func (p *Pool) StopAll() error {
	return p.forEachWorker((*worker.Worker).Stop)
}

// StartWorker sets the run-flag of the worker at index i.
func (p *Pool) StartWorker(i int) error {
	w, err := p.workerAt(i)
	if err != nil {
		return err
	}
	w.Start()
	return nil
}

// StopWorker clears the run-flag of the worker at index i.
func (p *Pool) StopWorker(i int) error {
	w, err := p.workerAt(i)
	if err != nil {
		return err
	}
	w.Stop()
	return nil
}

// AwaitIdle blocks until the queue is empty and no worker, retiring ones included, holds a
// task. It polls at the configured interval and returns ctx.Err() when ctx ends first. When
// an await timeout is configured it also bounds the wait.
//
// Paused workers do not drain the queue, so AwaitIdle does not return while queued work
// waits on them.
func (p *Pool) AwaitIdle(ctx context.Context) error {
	if p.opts.AwaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.AwaitTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.opts.AwaitPollInterval)
	defer ticker.Stop()

	for {
		if p.isIdle() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown terminates every worker, discards the queue and waits for all worker loops to
// exit. Tasks held by workers run to completion. The wait is bounded by ctx and, when set,
// by the shutdown timeout. After Shutdown every mutating operation returns ErrPoolClosed.
// This method is idempotent; later calls only wait.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.workersMutex.Lock()
	if !p.isClosed() {
		p.closed.Store(true)
		for _, w := range p.workers {
			p.retire(w)
		}
		p.workers = nil

		dropped := p.queue.Clear()
		p.metrics.TasksDiscarded(ctx, int64(dropped), metrics.DiscardShutdown)
		p.logger.Info("pool shutting down", "discarded", dropped)
	}
	pending := make([]*worker.Worker, 0, len(p.retiring))
	for w := range p.retiring {
		pending = append(pending, w)
	}
	p.workersMutex.Unlock()

	if p.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ShutdownTimeout)
		defer cancel()
	}

	for _, w := range pending {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return fmt.Errorf("waiting for workers to exit: %w", ctx.Err())
		}
	}
	return nil
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() Stats {
	// Read in the same order as isIdle: queue first.
	queued := p.queue.Len()

	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()

	s := Stats{
		ID:           p.id,
		Workers:      len(p.workers),
		Queued:       queued,
		Retiring:     len(p.retiring),
		Submitted:    p.submitted.Load(),
		Completed:    p.completed.Load(),
		Panicked:     p.panicked.Load(),
		WorkerStatus: make([]worker.Status, 0, len(p.workers)),
	}
	for _, w := range p.workers {
		status := w.Status()
		if status.HasTask {
			s.Busy++
		}
		if !status.Running {
			s.Paused++
		}
		s.WorkerStatus = append(s.WorkerStatus, status)
	}
	return s
}

// WorkerStatus returns a snapshot of the worker at index i.
func (p *Pool) WorkerStatus(i int) (worker.Status, error) {
	w, err := p.workerAt(i)
	if err != nil {
		return worker.Status{}, err
	}
	return w.Status(), nil
}

// ID returns the pool's instance id.
func (p *Pool) ID() string {
	return p.id
}

// Size returns the number of workers in the set.
func (p *Pool) Size() int {
	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()
	return len(p.workers)
}

// QueueLen returns the number of queued tasks.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}

// BusyWorkers returns how many workers, retiring ones included, hold a task.
func (p *Pool) BusyWorkers() int {
	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()

	busy := 0
	for _, w := range p.workers {
		if w.Busy() {
			busy++
		}
	}
	for w := range p.retiring {
		if w.Busy() {
			busy++
		}
	}
	return busy
}

// TaskFinished implements worker.Observer.
func (p *Pool) TaskFinished(workerID int, elapsed time.Duration, panicked bool) {
	p.completed.Add(1)
	if panicked {
		p.panicked.Add(1)
	}
	p.metrics.TaskFinished(context.Background(), elapsed, panicked)
	p.logger.Log(context.Background(), logger.LevelTrace, "task finished", "worker", workerID, "elapsed", elapsed, "panicked", panicked)
}

//endregion

//region Helpers

// isClosed is a helper method that checks if the pool has been shut down.
func (p *Pool) isClosed() bool {
	return p.closed.Load()
}

// isIdle reports whether the queue is empty and no worker holds a task. The queue is read
// before the workers: a worker pops under its own mutex and marks itself busy in the same
// critical section, so a task is always visible in one of the two places.
func (p *Pool) isIdle() bool {
	if p.queue.Len() != 0 {
		return false
	}
	return p.BusyWorkers() == 0
}

// retire terminates w and tracks it until its loop exits. The caller holds workersMutex.
func (p *Pool) retire(w *worker.Worker) {
	w.Terminate()
	p.retiring[w] = struct{}{}
	go p.reap(w)
}

// reap forgets w once its loop has exited.
func (p *Pool) reap(w *worker.Worker) {
	<-w.Done()

	p.workersMutex.Lock()
	defer p.workersMutex.Unlock()
	delete(p.retiring, w)
}

// workerAt returns the worker at index i.
func (p *Pool) workerAt(i int) (*worker.Worker, error) {
	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()

	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	if i < 0 || i >= len(p.workers) {
		return nil, fmt.Errorf("worker %d of %d: %w", i, len(p.workers), ErrWorkerNotFound)
	}
	return p.workers[i], nil
}

// forEachWorker applies f to every worker in the set.
func (p *Pool) forEachWorker(f func(*worker.Worker)) error {
	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()

	if p.isClosed() {
		return ErrPoolClosed
	}
	for _, w := range p.workers {
		f(w)
	}
	return nil
}

//endregion

//region Constructor

// New creates a pool with size workers. A negative size fails with ErrInvalidCount.
func New(size int, opts Options) (*Pool, error) {
	if size < 0 {
		return nil, fmt.Errorf("new pool of %d workers: %w", size, ErrInvalidCount)
	}

	if opts.AwaitPollInterval <= 0 {
		opts.AwaitPollInterval = cfg.DefaultAwaitPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	handle := opts.Metrics
	if handle == nil {
		handle = metrics.NewNoopMetrics()
	}

	id := uuid.NewString()
	p := &Pool{
		id:           id,
		queue:        taskqueue.New(),
		workersMutex: &sync.RWMutex{},
		retiring:     make(map[*worker.Worker]struct{}),
		closed:       &atomic.Bool{},
		submitted:    &atomic.Int64{},
		completed:    &atomic.Int64{},
		panicked:     &atomic.Int64{},
		opts:         opts,
		logger:       log.With("pool_id", id),
		metrics:      handle,
	}

	if err := p.AddWorkers(size); err != nil {
		return nil, err
	}
	handle.ObservePool(p)

	p.logger.Debug("pool created", "workers", size, "start_paused", opts.StartPaused)
	return p, nil
}

//endregion
