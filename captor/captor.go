// Package captor combines a capture queue, a capture policy, and a
// concurrency wrapper into the single per-stream unit a Group drives. A
// Captor is built either as a driver (policy.Driver) or a follower
// (policy.Follower); the constructor used determines which role it plays.
//
// The Driver and Follower method sets deliberately never mention V (the
// stream's data type) in their signatures — only S (the stamp type) — so a
// group holding streams of different data types can still treat every
// member uniformly through these two interfaces, with no any-typed escape
// hatch and no type assertions at the group layer.
package captor

import (
	"github.com/fetchrobotics/flow/dispatch"
	"github.com/fetchrobotics/flow/lockpolicy"
	"github.com/fetchrobotics/flow/policy"
	"github.com/fetchrobotics/flow/queue"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
)

// Member is the stamp-only contract every Captor satisfies regardless of
// role: lock control, cancellation/reset, and read-only diagnostics.
type Member[S any] interface {
	Lock()
	Unlock()
	NotifyAll()
	Abort(stamp S)
	Reset()
	Size() int
	Empty() bool
	Capacity() int
	Stats() Stats
}

// Driver is the contract a Group uses to drive capture off the lead
// stream's own queue.
type Driver[S any] interface {
	Member[S]
	DryCapture() (policy.Range[S], policy.State)
	Capture() (policy.Range[S], policy.State)
}

// Follower is the contract a Group uses to react to the Range the driver
// just established. The method names are distinct from Driver's so a
// single Captor can implement both interfaces at once.
type Follower[S any] interface {
	Member[S]
	DryCaptureAgainst(r policy.Range[S]) policy.State
	CaptureAgainst(r policy.Range[S]) policy.State
}

// Stats is a point-in-time snapshot of a captor's queue, for diagnostics
// and tests. It is not part of the capture algorithm itself.
type Stats struct {
	Size     int
	Capacity int
	Dropped  int64
}

// Captor is the generic, concrete implementation backing both Driver[S]
// and Follower[S]: a queue, a lock policy, a role-specific capture policy,
// and the sink captured dispatches are appended to. Exactly one of
// driverPolicy/followerPolicy is non-nil, fixed at construction.
type Captor[S any, D any, V any] struct {
	lock lockpolicy.Policy
	q    *queue.Queue[S, D, V]
	out  sink.Sink[S, V]

	driverPolicy   policy.Driver[S, D, V]
	followerPolicy policy.Follower[S, D, V]
}

// NewDriver builds a Captor playing the driver role for p.
func NewDriver[S any, D any, V any](ops stamp.Ops[S, D], capacity int, lock lockpolicy.Policy, p policy.Driver[S, D, V], out sink.Sink[S, V]) *Captor[S, D, V] {
	return &Captor[S, D, V]{
		lock:         lock,
		q:            queue.New[S, D, V](ops, capacity),
		out:          out,
		driverPolicy: p,
	}
}

// NewFollower builds a Captor playing the follower role for p.
func NewFollower[S any, D any, V any](ops stamp.Ops[S, D], capacity int, lock lockpolicy.Policy, p policy.Follower[S, D, V], out sink.Sink[S, V]) *Captor[S, D, V] {
	return &Captor[S, D, V]{
		lock:           lock,
		q:              queue.New[S, D, V](ops, capacity),
		out:            out,
		followerPolicy: p,
	}
}

var (
	_ Driver[int]   = (*Captor[int, int, int])(nil)
	_ Follower[int] = (*Captor[int, int, int])(nil)
)

// Lock acquires the captor's lock policy.
func (c *Captor[S, D, V]) Lock() { c.lock.Lock() }

// Unlock releases the captor's lock policy.
func (c *Captor[S, D, V]) Unlock() { c.lock.Unlock() }

// NotifyAll wakes any goroutines blocked in the lock policy's WaitUntil.
func (c *Captor[S, D, V]) NotifyAll() { c.lock.NotifyAll() }

// Inject inserts one dispatch, taking the lock itself and notifying
// waiters. Callers that already hold the lock (a Group mid-capture) should
// use InjectLocked instead.
func (c *Captor[S, D, V]) Inject(s S, v V) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.InjectLocked(s, v)
}

// InjectLocked inserts one dispatch and notifies waiters; the caller must
// already hold the captor's lock.
func (c *Captor[S, D, V]) InjectLocked(s S, v V) {
	c.q.Insert(dispatch.New(s, v))
	c.lock.NotifyAll()
}

// Size returns the number of currently queued elements.
func (c *Captor[S, D, V]) Size() int { return c.q.Size() }

// Empty reports whether the queue holds no elements.
func (c *Captor[S, D, V]) Empty() bool { return c.q.Empty() }

// Capacity returns the configured queue bound, or 0 if unbounded.
func (c *Captor[S, D, V]) Capacity() int { return c.q.Capacity() }

// Stats returns a point-in-time diagnostic snapshot. The caller must hold
// the lock for a consistent read under a Mutexed policy.
func (c *Captor[S, D, V]) Stats() Stats {
	return Stats{Size: c.q.Size(), Capacity: c.q.Capacity(), Dropped: c.q.Dropped()}
}

// Abort retires every queued element with stamp at or before stamp (all
// driver and follower policies apply this same rule; a follower's delay is
// not applied), and notifies waiters so a blocked capture can observe the
// new state.
func (c *Captor[S, D, V]) Abort(stamp S) {
	if c.driverPolicy != nil {
		c.driverPolicy.Abort(c.q, stamp)
	} else {
		c.followerPolicy.Abort(c.q, stamp)
	}
	c.lock.NotifyAll()
}

// Reset clears the queue and any policy-internal memory, and notifies
// waiters.
func (c *Captor[S, D, V]) Reset() {
	c.q.Clear()
	if c.driverPolicy != nil {
		c.driverPolicy.Reset()
	} else {
		c.followerPolicy.Reset()
	}
	c.lock.NotifyAll()
}

// DryCapture evaluates driver readiness without mutating the queue. Valid
// only on a Captor built with NewDriver.
func (c *Captor[S, D, V]) DryCapture() (policy.Range[S], policy.State) {
	return c.driverPolicy.DryCapture(c.q)
}

// Capture mutates the queue, emitting to the sink if PRIMED. Valid only on
// a Captor built with NewDriver.
func (c *Captor[S, D, V]) Capture() (policy.Range[S], policy.State) {
	return c.driverPolicy.Capture(c.q, c.out)
}

// DryCaptureAgainst evaluates follower readiness against r, without
// mutating the queue. Valid only on a Captor built with NewFollower.
func (c *Captor[S, D, V]) DryCaptureAgainst(r policy.Range[S]) policy.State {
	return c.followerPolicy.DryCapture(c.q, r)
}

// CaptureAgainst mutates the queue, emitting to the sink if PRIMED. Valid
// only on a Captor built with NewFollower.
func (c *Captor[S, D, V]) CaptureAgainst(r policy.Range[S]) policy.State {
	return c.followerPolicy.Capture(c.q, c.out, r)
}
