package policy

import (
	"github.com/fetchrobotics/flow/queue"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
)

// Driver is the capture policy attached to a group's driving stream. It
// decides when enough data has accumulated on its own queue to establish a
// Range for the rest of the group to react to.
type Driver[S any, D any, V any] interface {
	// DryCapture evaluates readiness without mutating q.
	DryCapture(q *queue.Queue[S, D, V]) (Range[S], State)
	// Capture re-evaluates readiness and, if PRIMED, emits to out and
	// retires the consumed elements from q.
	Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V]) (Range[S], State)
	// Abort retires everything at or before upper, per a direct or
	// group-derived abort signal. Drivers never self-abort; this is only
	// invoked through the synchronizer's abort path.
	Abort(q *queue.Queue[S, D, V], upper S)
	// Reset clears any policy-internal memory (not the queue itself).
	Reset()
}

// next emits the single oldest element as soon as one is available.
type next[S any, D any, V any] struct{}

// Next constructs the Next driver policy: emit one element at a time, as
// soon as it arrives.
func Next[S any, D any, V any]() Driver[S, D, V] {
	return next[S, D, V]{}
}

func (next[S, D, V]) DryCapture(q *queue.Queue[S, D, V]) (Range[S], State) {
	s, ok := q.OldestStamp()
	if !ok {
		return Range[S]{}, Retry
	}
	return Range[S]{Lower: s, Upper: s}, Primed
}

func (p next[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V]) (Range[S], State) {
	r, st := p.DryCapture(q)
	if st != Primed {
		return r, st
	}
	d, _ := q.PopOldest()
	out.Append(d)
	return r, Primed
}

func (next[S, D, V]) Abort(q *queue.Queue[S, D, V], upper S) { q.RemoveAtOrBefore(upper) }
func (next[S, D, V]) Reset()                                 {}

// batch emits the N oldest elements as a sliding window, but only ever
// retires the single oldest element, so most elements are emitted in more
// than one successive batch.
type batch[S any, D any, V any] struct {
	n int
}

// Batch constructs the Batch<N> driver policy. Ready once N elements are
// queued; emits the N oldest, retires only the oldest one.
func Batch[S any, D any, V any](n int) Driver[S, D, V] {
	if n < 1 {
		panic("policy: Batch requires n >= 1")
	}
	return batch[S, D, V]{n: n}
}

func (p batch[S, D, V]) DryCapture(q *queue.Queue[S, D, V]) (Range[S], State) {
	if q.Size() < p.n {
		return Range[S]{}, Retry
	}
	return Range[S]{Lower: q.At(0).Stamp(), Upper: q.At(p.n - 1).Stamp()}, Primed
}

func (p batch[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V]) (Range[S], State) {
	r, st := p.DryCapture(q)
	if st != Primed {
		return r, st
	}
	for i := 0; i < p.n; i++ {
		out.Append(q.At(i))
	}
	q.PopOldest()
	return r, Primed
}

func (batch[S, D, V]) Abort(q *queue.Queue[S, D, V], upper S) { q.RemoveAtOrBefore(upper) }
func (batch[S, D, V]) Reset()                                 {}

// chunk emits the N oldest elements and retires all of them, so each
// element is emitted exactly once.
type chunk[S any, D any, V any] struct {
	n int
}

// Chunk constructs the Chunk<N> driver policy. Ready once N elements are
// queued; emits and retires all N.
func Chunk[S any, D any, V any](n int) Driver[S, D, V] {
	if n < 1 {
		panic("policy: Chunk requires n >= 1")
	}
	return chunk[S, D, V]{n: n}
}

func (p chunk[S, D, V]) DryCapture(q *queue.Queue[S, D, V]) (Range[S], State) {
	if q.Size() < p.n {
		return Range[S]{}, Retry
	}
	return Range[S]{Lower: q.At(0).Stamp(), Upper: q.At(p.n - 1).Stamp()}, Primed
}

func (p chunk[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V]) (Range[S], State) {
	r, st := p.DryCapture(q)
	if st != Primed {
		return r, st
	}
	for i := 0; i < p.n; i++ {
		d, _ := q.PopOldest()
		out.Append(d)
	}
	return r, Primed
}

func (chunk[S, D, V]) Abort(q *queue.Queue[S, D, V], upper S) { q.RemoveAtOrBefore(upper) }
func (chunk[S, D, V]) Reset()                                 {}

// throttled emits the oldest element that is at least period past the last
// emission, per stamp arithmetic rather than wall clock. Grounded on joeycumines-go-utilpkg/catrate's sliding-window rate
// limiter: a gate keyed off the last accepted stamp rather than a channel or
// timer.
type throttled[S any, D any, V any] struct {
	ops    stamp.Ops[S, D]
	period D

	hasEmitted bool
	last       S
}

// Throttled constructs the Throttled<period> driver policy: emit the oldest
// element, but suppress emission until period has elapsed (in stamp terms)
// since the last one. A suppressed candidate stays queued while no later
// element clears the gate; once one does, Capture emits that later element
// and drops the suppressed elements ahead of it.
func Throttled[S any, D any, V any](ops stamp.Ops[S, D], period D) Driver[S, D, V] {
	return &throttled[S, D, V]{ops: ops, period: period}
}

func (p *throttled[S, D, V]) gateOpen(candidate S) bool {
	if !p.hasEmitted {
		return true
	}
	return p.ops.Compare(candidate, p.ops.Add(p.last, p.period)) >= 0
}

// candidate scans forward from the oldest element for the first one that
// clears the rate gate. Anything older than it is a suppressed candidate:
// it will never itself clear the gate (the gate only grows stricter as
// p.last advances), so it rides along for silent eviction on Capture
// rather than blocking the queue indefinitely.
func (p *throttled[S, D, V]) candidate(q *queue.Queue[S, D, V]) (idx int, ok bool) {
	for i := 0; i < q.Size(); i++ {
		if p.gateOpen(q.At(i).Stamp()) {
			return i, true
		}
	}
	return 0, false
}

func (p *throttled[S, D, V]) DryCapture(q *queue.Queue[S, D, V]) (Range[S], State) {
	idx, ok := p.candidate(q)
	if !ok {
		return Range[S]{}, Retry
	}
	s := q.At(idx).Stamp()
	return Range[S]{Lower: s, Upper: s}, Primed
}

func (p *throttled[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V]) (Range[S], State) {
	idx, ok := p.candidate(q)
	if !ok {
		return Range[S]{}, Retry
	}
	s := q.At(idx).Stamp()
	out.Append(q.At(idx))
	q.RemoveAtOrBefore(s)
	p.hasEmitted = true
	p.last = s
	return Range[S]{Lower: s, Upper: s}, Primed
}

func (p *throttled[S, D, V]) Abort(q *queue.Queue[S, D, V], upper S) { q.RemoveAtOrBefore(upper) }

func (p *throttled[S, D, V]) Reset() {
	p.hasEmitted = false
	var zero S
	p.last = zero
}
