package concurrency

import (
	"sync"
	"sync/atomic"
)

// Signal is a coalescing wake-up token shared between a notifier and one or more waiters.
// Any number of Notify calls made while nobody is waiting collapse into a single pending
// token, so a notifier never blocks and a waiter never misses a notification that was made
// before it started waiting.
type Signal struct {

	// token is a buffered channel with room for exactly one pending wake-up.
	// Waiters receive from it and notifiers perform a non-blocking send into it.
	token chan struct{}

	// closed is an atomic flag that indicates whether the signal has been closed.
	// Once closed, notifications are dropped and no token is ever delivered again.
	closed *atomic.Bool

	// closeMutex serialises Notify against Close so a token can never be sent after close.
	closeMutex *sync.Mutex
}

//region Implementation

// Wait returns the channel a waiter selects on. A receive succeeds once a token is pending.
// This method is non-blocking as it only returns the channel.
func (s *Signal) Wait() <-chan struct{} {
	return s.token
}

// Notify leaves a token for the next waiter. If a token is already pending, or the
// signal has been closed, the call has no effect.
func (s *Signal) Notify() {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()

	// Do nothing if already closed.
	if s.isClosed() {
		return
	}

	// Prevent blocking if a token is already pending.
	select {
	case s.token <- struct{}{}:
	default:
	}
}

// Close discards any pending token and stops further notifications from being delivered.
// The token channel is deliberately left open: a waiter selecting on it together with other
// cases simply never sees it fire again.
//
// This method is idempotent.
func (s *Signal) Close() {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()

	// Prevent close from being run twice
	if s.isClosed() {
		return
	}

	// Drain the token channel of any pending wake-up
	for range len(s.token) {
		<-s.token
	}

	s.closed.Store(true)
}

//endregion

//region Helpers

// isClosed is a helper method that checks whether the signal has been closed.
func (s *Signal) isClosed() bool {
	return s.closed.Load()
}

//endregion

//region Constructor

// NewSignal initializes a Signal with no pending token.
func NewSignal() *Signal {
	return &Signal{
		token:      make(chan struct{}, 1),
		closed:     &atomic.Bool{},
		closeMutex: &sync.Mutex{},
	}
}

//endregion
