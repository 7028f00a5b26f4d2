// Package lockpolicy provides the two interchangeable concurrency wrappers
// a captor can be built with: a zero-cost no-op for single-threaded polling,
// and a mutex+condition-variable wrapper for multi-threaded blocking
// capture. The condition-variable wake-on-deadline mechanism is grounded in
// the teacher's internal/queries.QueryDispatcher.WaitForResultWithClient,
// which pairs a sync.Cond with a background ticker goroutine that
// broadcasts periodically so a waiter blocked in Cond.Wait can re-check its
// deadline (Go's sync.Cond has no native deadline support).
package lockpolicy

import (
	"sync"
	"time"
)

// Policy is the concurrency contract a captor is built against. The None
// implementation performs every operation on the caller's goroutine; the
// Mutexed implementation guards state with a mutex and wakes blocked
// waiters via a condition variable.
type Policy interface {
	// Lock acquires exclusive access to captor state.
	Lock()
	// Unlock releases exclusive access acquired by Lock.
	Unlock()
	// NotifyAll wakes any goroutines blocked in WaitUntil. Must be called
	// with the lock held, after every successful Inject, Abort, or Reset.
	NotifyAll()
	// WaitUntil blocks, with the lock held, until predicate reports true,
	// the deadline passes, or cancel is closed. It returns the final
	// result of predicate(). The lock is held both on entry and on return.
	//
	// The None implementation evaluates predicate once and returns
	// immediately: "blocking" capture degrades to a single evaluation.
	WaitUntil(deadline time.Time, cancel <-chan struct{}, predicate func() bool) bool
}

// None is the single-threaded lock policy: no synchronization, and
// blocking capture degrades to one evaluation of the predicate.
type None struct{}

var _ Policy = None{}

func (None) Lock()      {}
func (None) Unlock()    {}
func (None) NotifyAll() {}

func (None) WaitUntil(_ time.Time, _ <-chan struct{}, predicate func() bool) bool {
	return predicate()
}

// Mutexed is the multi-threaded lock policy: a mutex guards all captor
// mutations and reads, and a condition variable is notified on every
// successful Inject, Abort, and Reset so blocked captures can re-evaluate.
type Mutexed struct {
	mu   sync.Mutex
	cond *sync.Cond
}

var _ Policy = (*Mutexed)(nil)

// NewMutexed constructs a ready-to-use Mutexed lock policy.
func NewMutexed() *Mutexed {
	m := &Mutexed{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Mutexed) Lock()      { m.mu.Lock() }
func (m *Mutexed) Unlock()    { m.mu.Unlock() }
func (m *Mutexed) NotifyAll() { m.cond.Broadcast() }

// wakeInterval is how often the background ticker re-broadcasts so a
// Cond.Wait()-blocked goroutine can re-check its deadline. Matches the
// teacher's WaitForResultWithClient cadence.
const wakeInterval = 10 * time.Millisecond

// WaitUntil must be called with the lock already held (mirroring
// sync.Cond.Wait's contract). It returns predicate()'s final value: true
// once satisfied, false if the deadline passed or cancel fired first.
func (m *Mutexed) WaitUntil(deadline time.Time, cancel <-chan struct{}, predicate func() bool) bool {
	if predicate() {
		return true
	}
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		return false
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(wakeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.cond.Broadcast()
			case <-cancel:
				m.cond.Broadcast()
				return
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	for {
		select {
		case <-cancel:
			return predicate()
		default:
		}

		if predicate() {
			return true
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return false
		}
		m.cond.Wait()
	}
}
