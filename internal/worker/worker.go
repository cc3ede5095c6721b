// Package worker implements the execution agent that runs tasks one at a time on its own
// goroutine on behalf of a pool.
package worker

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/pgvanniekerk/ezpool/internal/concurrency"
	"github.com/pgvanniekerk/ezpool/internal/logger"
	"github.com/pgvanniekerk/ezpool/task"
)

var (
	// ErrWorkerNotBound is returned when work is given to a worker that was never bound to a
	// task source.
	ErrWorkerNotBound = errors.New("worker is not bound to a pool")

	// ErrWorkerBusy is returned by Assign when the worker already holds a task.
	ErrWorkerBusy = errors.New("worker already holds a task")

	// ErrWorkerTerminated is returned when work is given to a worker that has been terminated.
	ErrWorkerTerminated = errors.New("worker has been terminated")
)

// Source is the queue a bound worker refills itself from once its current task returns.
// It replaces a back-reference to the owning pool: the worker only ever needs to take the
// next queued task and to wait until there is one.
type Source interface {

	// PopFront removes and returns the oldest queued task, or false when there is none.
	PopFront() (task.Task, bool)

	// Ready returns a channel that yields a token when queued work may be available.
	Ready() <-chan struct{}

	// Notify re-raises the ready token for another consumer.
	Notify()
}

// Observer receives a completion event every time a worker returns from a task.
type Observer interface {
	TaskFinished(workerID int, elapsed time.Duration, panicked bool)
}

// Status is a point-in-time snapshot of a worker.
type Status struct {
	ID         int
	Running    bool
	HasTask    bool
	Terminated bool
}

// Options configure a Worker.
type Options struct {

	// Running is the initial value of the run-flag.
	Running bool

	// Logger receives lifecycle and panic records. Defaults to logger.Default().
	Logger *slog.Logger

	// PanicHandler, when set, is called with the value recovered from a panicking task.
	PanicHandler func(any)

	// Observer, when set, is told about every finished task.
	Observer Observer

	// Clock measures task latency. Defaults to the real clock.
	Clock timeutil.Clock
}

// Worker runs an endless loop that alternates between waiting for work and executing it,
// until it is terminated.
//
// A worker is Idle while it holds no task, Running while it executes one and Stopped once its
// loop has exited. The run-flag set by Start and Stop only decides whether the worker may pick
// up new work; it never interrupts a task that is executing. A worker executes at most one task
// at a time, and both ways of handing it work (Assign/Offer from the pool and the self-refill
// from its Source) take the worker's mutex and require the task slot to be empty, so a worker
// is never given two tasks at once.
type Worker struct {

	// id is the worker's number within its pool, used in logs and status snapshots.
	id int

	// source is the queue the worker refills from. A nil source means the worker is unbound.
	source Source

	// mu guards running, current, terminated and spawned.
	mu *sync.Mutex

	// running is the run-flag: true when the worker may pick up new work.
	running bool

	// current is the task the worker holds. It is non-nil from assignment until the task returns.
	current task.Task

	// terminated is set once Terminate has been called. It is never cleared.
	terminated bool

	// spawned records whether the loop goroutine has been launched.
	spawned bool

	// wake is notified whenever the worker's state changes in a way its loop must observe.
	wake *concurrency.Signal

	// quit is closed by Terminate to unblock the loop permanently.
	quit chan struct{}

	// done is closed once the loop has exited.
	done chan struct{}

	logger       *slog.Logger
	panicHandler func(any)
	observer     Observer
	clock        timeutil.Clock
}

//region Implementation

// Spawn launches the worker's loop goroutine. Calling it more than once has no effect.
// An unbound worker cannot be spawned.
func (w *Worker) Spawn() error {
	if w.source == nil {
		return ErrWorkerNotBound
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminated {
		return ErrWorkerTerminated
	}
	if w.spawned {
		return nil
	}
	w.spawned = true

	go w.loop()
	return nil
}

// Assign hands t to the worker and sets its run-flag.
//
// It fails with ErrWorkerNotBound if the worker has no source, ErrWorkerTerminated after
// Terminate, and ErrWorkerBusy if the worker already holds a task.
func (w *Worker) Assign(t task.Task) error {
	if w.source == nil {
		return ErrWorkerNotBound
	}

	w.mu.Lock()
	switch {
	case w.terminated:
		w.mu.Unlock()
		return ErrWorkerTerminated
	case w.current != nil:
		w.mu.Unlock()
		return ErrWorkerBusy
	}
	w.current = t
	w.running = true
	w.mu.Unlock()

	w.wake.Notify()
	return nil
}

// Offer hands t to the worker only if it is bound, runnable, not terminated and idle.
// It reports whether the worker accepted the task. Offer never changes the run-flag, so a
// paused worker is never handed work this way.
func (w *Worker) Offer(t task.Task) bool {
	if w.source == nil {
		return false
	}

	w.mu.Lock()
	if w.terminated || !w.running || w.current != nil {
		w.mu.Unlock()
		return false
	}
	w.current = t
	w.mu.Unlock()

	w.wake.Notify()
	return true
}

// Start sets the run-flag, making the worker eligible to pick up work.
func (w *Worker) Start() {
	w.setRunning(true)
}

// Stop clears the run-flag. A task being executed still runs to completion, after which the
// worker stays suspended until Start is called again.
func (w *Worker) Stop() {
	w.setRunning(false)
}

// Terminate permanently stops the worker. The loop finishes the task it holds, if any, does
// not take further work and then exits. Terminate does not wait; use Done for that.
// This method is idempotent.
func (w *Worker) Terminate() {
	w.mu.Lock()
	if w.terminated {
		w.mu.Unlock()
		return
	}
	w.terminated = true
	spawned := w.spawned
	w.mu.Unlock()

	close(w.quit)

	// Without a loop there is nobody else to report the exit.
	if !spawned {
		close(w.done)
	}
}

// Done returns a channel that is closed once the worker's loop has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// ID returns the worker's number.
func (w *Worker) ID() int {
	return w.id
}

// Status returns a snapshot of the worker's state.
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		ID:         w.id,
		Running:    w.running,
		HasTask:    w.current != nil,
		Terminated: w.terminated,
	}
}

// Busy reports whether the worker currently holds a task.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current != nil
}

//endregion

//region Helpers

// loop is the worker's run loop.
func (w *Worker) loop() {
	defer close(w.done)
	defer w.wake.Close()

	w.logger.Debug("worker started")
	for {
		t, ok := w.await()
		if !ok {
			w.logger.Debug("worker exited")
			return
		}
		w.execute(t)
		w.finish()
	}
}

// await blocks until the worker holds a task or has been terminated. A held task is always
// returned before termination is honoured, so an assigned task is never dropped.
func (w *Worker) await() (task.Task, bool) {
	for {
		w.mu.Lock()
		if w.current != nil {
			t := w.current
			w.mu.Unlock()
			return t, true
		}
		if w.terminated {
			w.mu.Unlock()
			return nil, false
		}
		// Only a runnable idle worker competes for queued work.
		var ready <-chan struct{}
		if w.running {
			ready = w.source.Ready()
		}
		w.mu.Unlock()

		select {
		case <-w.quit:
		case <-w.wake.Wait():
		case <-ready:
			w.refill()
		}
	}
}

// refill takes the head of the source after this worker received the ready token.
func (w *Worker) refill() {
	w.mu.Lock()
	defer w.mu.Unlock()

	// The worker changed state after it started waiting: hand the token to someone else.
	if w.current != nil || !w.running || w.terminated {
		w.source.Notify()
		return
	}

	if t, ok := w.source.PopFront(); ok {
		w.current = t
	}
}

// finish clears the finished task and, when the worker is still runnable, pulls the next
// queued task straight into its slot.
func (w *Worker) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.current = nil
	if !w.running || w.terminated {
		return
	}

	if t, ok := w.source.PopFront(); ok {
		w.current = t
	}
}

// execute runs t and reports its completion to the observer.
func (w *Worker) execute(t task.Task) {
	start := w.clock.Now()
	panicked := w.runSafely(t)

	if w.observer != nil {
		w.observer.TaskFinished(w.id, w.clock.Now().Sub(start), panicked)
	}
}

// runSafely runs t and recovers a panic so it cannot end the worker's loop.
func (w *Worker) runSafely(t task.Task) (panicked bool) {
	defer func() {
		if p := recover(); p != nil {
			panicked = true
			w.logger.Error("task panicked", "panic", p, "stack", string(debug.Stack()))
			if w.panicHandler != nil {
				w.panicHandler(p)
			}
		}
	}()

	t()
	return false
}

// setRunning updates the run-flag and wakes the loop so it re-evaluates what to wait on.
func (w *Worker) setRunning(running bool) {
	w.mu.Lock()
	w.running = running
	w.mu.Unlock()

	w.wake.Notify()
}

//endregion

//region Constructor

// New creates a worker bound to source. The loop is not launched until Spawn is called.
// A nil source yields an unbound worker that refuses all work.
func New(id int, source Source, opts Options) *Worker {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock()
	}

	return &Worker{
		id:           id,
		source:       source,
		mu:           &sync.Mutex{},
		running:      opts.Running,
		wake:         concurrency.NewSignal(),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       log.With("worker", id),
		panicHandler: opts.PanicHandler,
		observer:     opts.Observer,
		clock:        clock,
	}
}

//endregion
