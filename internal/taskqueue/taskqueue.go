// Package taskqueue provides the thread-safe FIFO buffer holding tasks that are waiting
// for a free worker.
package taskqueue

import (
	"sync"

	"github.com/pgvanniekerk/ezpool/internal/concurrency"
	"github.com/pgvanniekerk/ezpool/task"
)

// node is a single link of the queue.
type node struct {
	value task.Task
	next  *node
}

// TaskQueue is an unbounded FIFO of tasks. Every operation runs inside one critical section
// scoped to the queue, which keeps insertion order equal to removal order and prevents lost
// updates when the pool and several workers touch it at once.
//
// Besides the tasks themselves the queue owns a ready signal. A token is left on it by every
// Push, so an idle worker blocked on Ready wakes up as soon as there is something to take.
type TaskQueue struct {

	// mu guards start, end and size.
	mu *sync.Mutex

	// start and end are the head and tail of the linked list. Both are nil when empty.
	start, end *node

	// size is the number of queued tasks.
	size int

	// ready carries a wake-up token for idle consumers whenever the queue gains work.
	ready *concurrency.Signal
}

//region Implementation

// Push appends t to the tail of the queue and wakes one idle consumer.
// Push never blocks and never rejects a task.
func (q *TaskQueue) Push(t task.Task) {
	q.mu.Lock()
	n := &node{value: t}
	if q.size == 0 {
		q.start = n
		q.end = n
	} else {
		q.end.next = n
		q.end = n
	}
	q.size++
	q.mu.Unlock()

	q.ready.Notify()
}

// PopFront removes and returns the head of the queue. The boolean is false when the queue
// is empty. PopFront never blocks.
func (q *TaskQueue) PopFront() (task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil, false
	}

	n := q.start
	if q.size == 1 {
		q.start = nil
		q.end = nil
	} else {
		q.start = n.next
	}
	q.size--

	// Hand the wake-up on to the next idle consumer while work remains.
	if q.size > 0 {
		q.ready.Notify()
	}

	return n.value, true
}

// Clear discards every queued task and returns how many were dropped.
// Tasks already handed to a worker are not affected.
func (q *TaskQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := q.size
	q.start = nil
	q.end = nil
	q.size = 0
	return dropped
}

// Len returns the number of queued tasks. Under concurrent mutation it is only a hint.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Ready returns the channel an idle consumer waits on for new work.
func (q *TaskQueue) Ready() <-chan struct{} {
	return q.ready.Wait()
}

// Notify re-raises the ready token. A consumer that took the token but could not pop
// (because it became busy or was paused in the meantime) passes it on with Notify.
func (q *TaskQueue) Notify() {
	q.ready.Notify()
}

//endregion

//region Constructor

// New returns an empty TaskQueue.
func New() *TaskQueue {
	return &TaskQueue{
		mu:    &sync.Mutex{},
		ready: concurrency.NewSignal(),
	}
}

//endregion
