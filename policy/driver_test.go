package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchrobotics/flow/dispatch"
	"github.com/fetchrobotics/flow/queue"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
)

func intQueue(stamps ...int) *queue.Queue[int, int, string] {
	q := queue.New[int, int, string](stamp.IntOps[int](), 0)
	for _, s := range stamps {
		q.Insert(dispatch.New(s, "v"))
	}
	return q
}

func TestNextDriver(t *testing.T) {
	p := Next[int, int, string]()
	q := intQueue()

	_, st := p.DryCapture(q)
	assert.Equal(t, Retry, st)

	q.Insert(dispatch.New(5, "v"))
	out := sink.NewSlice[int, string]()
	r, st := p.Capture(q, out)
	require.Equal(t, Primed, st)
	assert.Equal(t, Range[int]{Lower: 5, Upper: 5}, r)
	assert.Equal(t, 1, len(out.Values))
	assert.True(t, q.Empty())
}

func TestBatchDriverSlidingWindow(t *testing.T) {
	p := Batch[int, int, string](3)
	q := intQueue(1, 2, 3, 4)
	out := sink.NewSlice[int, string]()

	r, st := p.Capture(q, out)
	require.Equal(t, Primed, st)
	assert.Equal(t, Range[int]{Lower: 1, Upper: 3}, r)
	assert.Equal(t, []int{1, 2, 3}, stampsOf(out))
	assert.Equal(t, []int{2, 3, 4}, q.Snapshot())
}

func TestBatchDriverRetry(t *testing.T) {
	p := Batch[int, int, string](3)
	q := intQueue(1, 2)
	_, st := p.DryCapture(q)
	assert.Equal(t, Retry, st)
}

func TestChunkDriverConsumesAll(t *testing.T) {
	p := Chunk[int, int, string](2)
	q := intQueue(5, 6, 7)
	out := sink.NewSlice[int, string]()

	r, st := p.Capture(q, out)
	require.Equal(t, Primed, st)
	assert.Equal(t, Range[int]{Lower: 5, Upper: 6}, r)
	assert.Equal(t, []int{5, 6}, stampsOf(out))
	assert.Equal(t, []int{7}, q.Snapshot())
}

func TestThrottledDriverGatesOnPeriod(t *testing.T) {
	ops := stamp.IntOps[int]()
	p := Throttled[int, int, string](ops, 10)
	q := intQueue(1)
	out := sink.NewSlice[int, string]()

	r, st := p.Capture(q, out)
	require.Equal(t, Primed, st)
	assert.Equal(t, 1, r.Lower)

	q.Insert(dispatch.New(5, "v"))
	_, st = p.DryCapture(q)
	assert.Equal(t, Retry, st, "5 is within 10 of the last emission at 1, and no later arrival clears the gate yet")

	// 11 clears the gate (1+10), so the driver skips the still-suppressed
	// 5 and emits 11, silently dropping 5 rather than blocking on it
	// forever.
	q.Insert(dispatch.New(11, "v"))
	r, st = p.Capture(q, out)
	require.Equal(t, Primed, st)
	assert.Equal(t, 11, r.Lower)
	assert.Equal(t, []int{1, 11}, stampsOf(out))
	assert.True(t, q.Empty())
}

func TestThrottledDriverResetClearsGate(t *testing.T) {
	ops := stamp.IntOps[int]()
	p := Throttled[int, int, string](ops, 100)
	q := intQueue(1)
	out := sink.NewSlice[int, string]()

	_, st := p.Capture(q, out)
	require.Equal(t, Primed, st)

	p.Reset()
	q.Insert(dispatch.New(2, "v"))
	_, st = p.DryCapture(q)
	assert.Equal(t, Primed, st, "reset should clear the throttle gate")
}

func stampsOf(s *sink.Slice[int, string]) []int {
	out := make([]int, len(s.Values))
	for i, d := range s.Values {
		out[i] = d.Stamp()
	}
	return out
}
