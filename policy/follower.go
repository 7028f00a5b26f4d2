package policy

import (
	"github.com/fetchrobotics/flow/dispatch"
	"github.com/fetchrobotics/flow/queue"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
)

// Follower is the capture policy attached to a group's non-driving streams.
// It reacts to the Range the driver just established, rather than deciding
// on its own when to emit.
type Follower[S any, D any, V any] interface {
	// DryCapture evaluates readiness against r without mutating q.
	DryCapture(q *queue.Queue[S, D, V], r Range[S]) State
	// Capture re-evaluates readiness and, if PRIMED, emits to out and
	// retires the consumed elements from q.
	Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State
	// Abort retires every element with stamp at or before the abort stamp.
	// Every follower policy applies this same rule; the policy's delay (or
	// period) is not applied to the abort stamp.
	Abort(q *queue.Queue[S, D, V], stamp S)
	// Reset clears any policy-internal memory (not the queue itself).
	Reset()
}

// anyBefore emits every queued element older than the driving upper bound,
// unconditionally — it is always ready.
type anyBefore[S any, D any, V any] struct {
	ops   stamp.Ops[S, D]
	delay D
}

// AnyBefore constructs the AnyBefore(delay) follower policy: emit every
// element with stamp < R.upper - delay. Always PRIMED.
func AnyBefore[S any, D any, V any](ops stamp.Ops[S, D], delay D) Follower[S, D, V] {
	return anyBefore[S, D, V]{ops: ops, delay: delay}
}

func (p anyBefore[S, D, V]) boundary(r Range[S]) S { return p.ops.Sub(r.Upper, p.delay) }

func (anyBefore[S, D, V]) DryCapture(_ *queue.Queue[S, D, V], _ Range[S]) State {
	return Primed
}

func (p anyBefore[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	emitBefore(q, out, p.boundary(r))
	return Primed
}

func (p anyBefore[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (anyBefore[S, D, V]) Reset() {}

// before is AnyBefore's witnessed cousin: it holds off emitting until at
// least one element has arrived at or past the boundary, so a burst that
// hasn't caught up yet doesn't get drained prematurely.
type before[S any, D any, V any] struct {
	ops   stamp.Ops[S, D]
	delay D
}

// Before constructs the Before(delay) follower policy: emit every element
// with stamp < R.lower - delay, once a witness at or past the boundary has
// arrived.
func Before[S any, D any, V any](ops stamp.Ops[S, D], delay D) Follower[S, D, V] {
	return before[S, D, V]{ops: ops, delay: delay}
}

func (p before[S, D, V]) boundary(r Range[S]) S { return p.ops.Sub(r.Lower, p.delay) }

func (p before[S, D, V]) DryCapture(q *queue.Queue[S, D, V], r Range[S]) State {
	if witnessAtOrAfter(p.ops, q, p.boundary(r)) {
		return Primed
	}
	return Retry
}

func (p before[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	st := p.DryCapture(q, r)
	if st != Primed {
		return st
	}
	emitBefore(q, out, p.boundary(r))
	return Primed
}

func (p before[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (before[S, D, V]) Reset() {}

// closestBefore picks the single element whose stamp is the largest within
// an open window (B-period, B), where B = R.lower - delay.
type closestBefore[S any, D any, V any] struct {
	ops    stamp.Ops[S, D]
	delay  D
	period D
}

// ClosestBefore constructs the ClosestBefore(delay, period) follower
// policy.
func ClosestBefore[S any, D any, V any](ops stamp.Ops[S, D], delay, period D) Follower[S, D, V] {
	return closestBefore[S, D, V]{ops: ops, delay: delay, period: period}
}

func (p closestBefore[S, D, V]) boundary(r Range[S]) S { return p.ops.Sub(r.Lower, p.delay) }

// candidate returns the index of the largest-stamp element strictly inside
// (B-period, B), and whether a witness at or past B has arrived yet.
func (p closestBefore[S, D, V]) candidate(q *queue.Queue[S, D, V], b S) (idx int, hasCandidate, hasWitness bool) {
	atOrAfterB := q.IndexAtOrAfter(b)
	hasWitness = atOrAfterB < q.Size()
	if atOrAfterB == 0 {
		return 0, false, hasWitness
	}
	idx = atOrAfterB - 1
	lowerBound := p.ops.Sub(b, p.period)
	if p.ops.Compare(q.At(idx).Stamp(), lowerBound) > 0 {
		return idx, true, hasWitness
	}
	return 0, false, hasWitness
}

func (p closestBefore[S, D, V]) DryCapture(q *queue.Queue[S, D, V], r Range[S]) State {
	_, hasCandidate, hasWitness := p.candidate(q, p.boundary(r))
	if !hasWitness {
		return Retry
	}
	if hasCandidate {
		return Primed
	}
	return Abort
}

func (p closestBefore[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	b := p.boundary(r)
	idx, hasCandidate, hasWitness := p.candidate(q, b)
	if !hasWitness {
		return Retry
	}
	if !hasCandidate {
		return Abort
	}
	d := q.At(idx)
	out.Append(d)
	q.RemoveAtOrBefore(d.Stamp())
	return Primed
}

func (p closestBefore[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (closestBefore[S, D, V]) Reset() {}

// countBefore requires at least N elements to have accumulated strictly
// before B = R.lower - delay, and emits the N newest of them.
type countBefore[S any, D any, V any] struct {
	ops   stamp.Ops[S, D]
	n     int
	delay D
}

// CountBefore constructs the CountBefore(n, delay) follower policy.
func CountBefore[S any, D any, V any](ops stamp.Ops[S, D], n int, delay D) Follower[S, D, V] {
	if n < 1 {
		panic("policy: CountBefore requires n >= 1")
	}
	return countBefore[S, D, V]{ops: ops, n: n, delay: delay}
}

func (p countBefore[S, D, V]) boundary(r Range[S]) S { return p.ops.Sub(r.Lower, p.delay) }

func (p countBefore[S, D, V]) DryCapture(q *queue.Queue[S, D, V], r Range[S]) State {
	b := p.boundary(r)
	count := q.IndexAtOrAfter(b)
	if count >= q.Size() {
		return Retry
	}
	if count >= p.n {
		return Primed
	}
	return Abort
}

func (p countBefore[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	st := p.DryCapture(q, r)
	if st != Primed {
		return st
	}
	b := p.boundary(r)
	count := q.IndexAtOrAfter(b)
	for i := count - p.n; i < count; i++ {
		out.Append(q.At(i))
	}
	q.RemoveBefore(b)
	return Primed
}

func (p countBefore[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (countBefore[S, D, V]) Reset() {}

// latched holds the newest element with stamp <= R.lower - minPeriod,
// re-emitting its previously latched value when nothing fresher has
// arrived. It never ABORTs: a held value can always still be re-emitted.
type latched[S any, D any, V any] struct {
	ops       stamp.Ops[S, D]
	minPeriod D

	has   bool
	value dispatch.Dispatch[S, V]
}

// Latched constructs the Latched(minPeriod) follower policy.
func Latched[S any, D any, V any](ops stamp.Ops[S, D], minPeriod D) Follower[S, D, V] {
	return &latched[S, D, V]{ops: ops, minPeriod: minPeriod}
}

func (p *latched[S, D, V]) boundary(r Range[S]) S { return p.ops.Sub(r.Lower, p.minPeriod) }

func (p *latched[S, D, V]) freshCandidate(q *queue.Queue[S, D, V], b S) (dispatch.Dispatch[S, V], bool) {
	idx := q.IndexAfter(b) - 1
	if idx < 0 {
		return dispatch.Dispatch[S, V]{}, false
	}
	return q.At(idx), true
}

func (p *latched[S, D, V]) DryCapture(q *queue.Queue[S, D, V], r Range[S]) State {
	if _, ok := p.freshCandidate(q, p.boundary(r)); ok {
		return Primed
	}
	if p.has {
		return Primed
	}
	return Retry
}

func (p *latched[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	if d, ok := p.freshCandidate(q, p.boundary(r)); ok {
		out.Append(d)
		q.RemoveBefore(d.Stamp())
		p.has = true
		p.value = d
		return Primed
	}
	if p.has {
		out.Append(p.value)
		return Primed
	}
	return Retry
}

func (p *latched[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (p *latched[S, D, V]) Reset() {
	p.has = false
	var zero dispatch.Dispatch[S, V]
	p.value = zero
}

// matchedStamp requires an element whose stamp is exactly R.lower — an
// exact join key match rather than a windowed one.
type matchedStamp[S any, D any, V any] struct {
	ops stamp.Ops[S, D]
}

// MatchedStamp constructs the MatchedStamp follower policy: emit the
// element whose stamp exactly equals R.lower.
func MatchedStamp[S any, D any, V any](ops stamp.Ops[S, D]) Follower[S, D, V] {
	return matchedStamp[S, D, V]{ops: ops}
}

func (p matchedStamp[S, D, V]) find(q *queue.Queue[S, D, V], r Range[S]) (idx int, exact bool) {
	idx = q.IndexAtOrAfter(r.Lower)
	exact = idx < q.Size() && p.ops.Compare(q.At(idx).Stamp(), r.Lower) == 0
	return idx, exact
}

// oldestExceedsLower reports whether the queue's oldest stamp has already
// passed R.lower. Any later element arriving with stamp == R.lower would
// have to sort before that oldest element, which a stream of
// non-decreasing stamps can never produce — so this is the point past
// which an exact match can no longer arrive.
func (p matchedStamp[S, D, V]) oldestExceedsLower(q *queue.Queue[S, D, V], r Range[S]) bool {
	if q.Empty() {
		return false
	}
	return p.ops.Compare(q.At(0).Stamp(), r.Lower) > 0
}

func (p matchedStamp[S, D, V]) DryCapture(q *queue.Queue[S, D, V], r Range[S]) State {
	_, exact := p.find(q, r)
	if exact {
		return Primed
	}
	if p.oldestExceedsLower(q, r) {
		return Abort
	}
	return Retry
}

func (p matchedStamp[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	idx, exact := p.find(q, r)
	if exact {
		out.Append(q.At(idx))
		q.RemoveAtOrBefore(r.Lower)
		return Primed
	}
	if p.oldestExceedsLower(q, r) {
		return Abort
	}
	return Retry
}

func (p matchedStamp[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (matchedStamp[S, D, V]) Reset() {}

// ranged brackets the driving range with the nearest element below it and
// the nearest element above it, for callers that interpolate between the
// two rather than consuming a single matched sample.
type ranged[S any, D any, V any] struct {
	ops   stamp.Ops[S, D]
	delay D
}

// Ranged constructs the Ranged(delay) follower policy: emit the
// largest-stamped element below R.lower-delay, every element with stamp in
// [R.lower-delay, R.upper-delay], and the smallest-stamped element above
// R.upper-delay.
func Ranged[S any, D any, V any](ops stamp.Ops[S, D], delay D) Follower[S, D, V] {
	return ranged[S, D, V]{ops: ops, delay: delay}
}

func (p ranged[S, D, V]) lowerBoundary(r Range[S]) S { return p.ops.Sub(r.Lower, p.delay) }
func (p ranged[S, D, V]) upperBoundary(r Range[S]) S { return p.ops.Sub(r.Upper, p.delay) }

// bracket locates the lo witness (largest stamp strictly below lb), the hi
// witness (smallest stamp strictly above ub), and atOrAfterLB, the index the
// interior window [lb, ub] starts at (interior spans
// q.items[atOrAfterLB:hiIdx]).
func (p ranged[S, D, V]) bracket(q *queue.Queue[S, D, V], r Range[S]) (loIdx, hiIdx, atOrAfterLB int, hasLo, hasHi bool) {
	lb := p.lowerBoundary(r)
	atOrAfterLB = q.IndexAtOrAfter(lb)
	if atOrAfterLB > 0 {
		loIdx, hasLo = atOrAfterLB-1, true
	}
	ub := p.upperBoundary(r)
	hiIdx = q.IndexAfter(ub)
	hasHi = hiIdx < q.Size()
	return loIdx, hiIdx, atOrAfterLB, hasLo, hasHi
}

func (p ranged[S, D, V]) DryCapture(q *queue.Queue[S, D, V], r Range[S]) State {
	_, _, _, hasLo, hasHi := p.bracket(q, r)
	if !hasLo {
		if witnessAtOrAfter(p.ops, q, p.lowerBoundary(r)) {
			return Abort
		}
		return Retry
	}
	if !hasHi {
		return Retry
	}
	return Primed
}

func (p ranged[S, D, V]) Capture(q *queue.Queue[S, D, V], out sink.Sink[S, V], r Range[S]) State {
	st := p.DryCapture(q, r)
	if st != Primed {
		return st
	}
	loIdx, hiIdx, atOrAfterLB, _, _ := p.bracket(q, r)
	out.Append(q.At(loIdx))
	for i := atOrAfterLB; i < hiIdx; i++ {
		out.Append(q.At(i))
	}
	out.Append(q.At(hiIdx))
	// Everything through the hi witness's boundary is retired; hi itself is
	// kept (it sorts past ub) so it can serve as the lo witness for the
	// next range.
	q.RemoveAtOrBefore(p.upperBoundary(r))
	return Primed
}

func (p ranged[S, D, V]) Abort(q *queue.Queue[S, D, V], stamp S) {
	q.RemoveAtOrBefore(stamp)
}

func (ranged[S, D, V]) Reset() {}
