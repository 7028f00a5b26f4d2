// Package queue implements the capture queue: an ordered, stamp-sorted
// buffer of dispatches with fast oldest-access and efficient prefix removal.
//
// Ordering and the capacity-bounded eviction rule are grounded in
// joeycumines-go-utilpkg/catrate's ringBuffer (sorted insert via binary
// search, index-based RemoveBefore) and in the teacher's
// internal/buffers.RingBuffer (generic, capacity-bounded, oldest-first
// eviction). Queue itself holds no lock — concurrency is the responsibility
// of the lockpolicy layer that wraps a captor's queue.
package queue

import (
	"golang.org/x/exp/slices"

	"github.com/fetchrobotics/flow/dispatch"
	"github.com/fetchrobotics/flow/stamp"
)

// Queue is an ordered multiset of dispatches, sorted by stamp ascending
// (Invariant Q1). If capacity is positive, inserting past capacity evicts
// the oldest element before the new one is inserted (Invariant Q3).
type Queue[S any, D any, V any] struct {
	ops      stamp.Ops[S, D]
	items    []dispatch.Dispatch[S, V]
	capacity int // 0 means unbounded

	dropped int64 // count of elements evicted due to capacity
}

// New constructs an empty Queue. A capacity of 0 means unbounded.
func New[S any, D any, V any](ops stamp.Ops[S, D], capacity int) *Queue[S, D, V] {
	return &Queue[S, D, V]{ops: ops, capacity: capacity}
}

// Insert places d at its stamp-ordered position, preserving insertion order
// among equal stamps. If the queue is at capacity, the oldest element is
// dropped first.
func (q *Queue[S, D, V]) Insert(d dispatch.Dispatch[S, V]) {
	if q.capacity > 0 && len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.dropped++
	}

	idx, _ := slices.BinarySearchFunc(q.items, d.Stamp(), func(e dispatch.Dispatch[S, V], target S) int {
		return q.ops.Compare(e.Stamp(), target)
	})
	// advance past any elements with an equal stamp, so insertion order of
	// same-stamp dispatches is preserved (stable sort, not just sorted).
	for idx < len(q.items) && q.ops.Compare(q.items[idx].Stamp(), d.Stamp()) == 0 {
		idx++
	}

	q.items = append(q.items, dispatch.Dispatch[S, V]{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = d
}

// Empty reports whether the queue holds no elements.
func (q *Queue[S, D, V]) Empty() bool { return len(q.items) == 0 }

// Size returns the number of queued elements.
func (q *Queue[S, D, V]) Size() int { return len(q.items) }

// Capacity returns the configured bound, or 0 if unbounded.
func (q *Queue[S, D, V]) Capacity() int { return q.capacity }

// Dropped returns the number of elements evicted due to capacity since
// construction or the last Clear.
func (q *Queue[S, D, V]) Dropped() int64 { return q.dropped }

// OldestStamp returns the stamp of the front element. ok is false when
// the queue is empty.
func (q *Queue[S, D, V]) OldestStamp() (s S, ok bool) {
	if len(q.items) == 0 {
		return s, false
	}
	return q.items[0].Stamp(), true
}

// NewestStamp returns the stamp of the back element. ok is false when the
// queue is empty.
func (q *Queue[S, D, V]) NewestStamp() (s S, ok bool) {
	if len(q.items) == 0 {
		return s, false
	}
	return q.items[len(q.items)-1].Stamp(), true
}

// PopOldest removes and returns the front element.
func (q *Queue[S, D, V]) PopOldest() (d dispatch.Dispatch[S, V], ok bool) {
	if len(q.items) == 0 {
		return d, false
	}
	d = q.items[0]
	q.items = q.items[1:]
	return d, true
}

// At returns the i'th oldest element without removing it.
func (q *Queue[S, D, V]) At(i int) dispatch.Dispatch[S, V] {
	return q.items[i]
}

// IndexAtOrAfter returns the index of the first element with stamp >= s, or
// Size() if every queued element sorts before s. It does not mutate the
// queue; capture policies use it to locate retention and emission
// boundaries without popping.
func (q *Queue[S, D, V]) IndexAtOrAfter(s S) int {
	idx, _ := slices.BinarySearchFunc(q.items, s, func(e dispatch.Dispatch[S, V], target S) int {
		return q.ops.Compare(e.Stamp(), target)
	})
	return idx
}

// IndexAfter returns the index of the first element with stamp strictly
// greater than s, or Size() if none. Unlike IndexAtOrAfter it skips past any
// run of elements whose stamp equals s exactly.
func (q *Queue[S, D, V]) IndexAfter(s S) int {
	idx := q.IndexAtOrAfter(s)
	for idx < len(q.items) && q.ops.Compare(q.items[idx].Stamp(), s) == 0 {
		idx++
	}
	return idx
}

// RemoveBefore retires all elements with stamp strictly less than s,
// returning the number removed.
func (q *Queue[S, D, V]) RemoveBefore(s S) int {
	idx := q.IndexAtOrAfter(s)
	q.items = q.items[idx:]
	return idx
}

// RemoveAtOrBefore retires all elements with stamp less than or equal to s,
// returning the number removed.
func (q *Queue[S, D, V]) RemoveAtOrBefore(s S) int {
	idx := q.IndexAfter(s)
	q.items = q.items[idx:]
	return idx
}

// Clear empties the queue and resets the drop counter.
func (q *Queue[S, D, V]) Clear() {
	q.items = nil
	q.dropped = 0
}

// Snapshot returns a copy of the currently queued stamps, oldest first, for
// diagnostics. It never mutates the queue.
func (q *Queue[S, D, V]) Snapshot() []S {
	out := make([]S, len(q.items))
	for i, d := range q.items {
		out[i] = d.Stamp()
	}
	return out
}
