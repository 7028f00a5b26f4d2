package policy

import (
	"github.com/fetchrobotics/flow/queue"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
)

// emitBefore appends every element with stamp strictly less than b to out,
// in stamp order, then removes exactly those elements from q. Returns the
// count emitted.
func emitBefore[S any, D any, V any](q *queue.Queue[S, D, V], out sink.Sink[S, V], b S) int {
	idx := q.IndexAtOrAfter(b)
	for i := 0; i < idx; i++ {
		out.Append(q.At(i))
	}
	q.RemoveBefore(b)
	return idx
}

// witnessAtOrAfter reports whether q holds any element with stamp >= b. The
// queue is sorted ascending, so this holds iff the newest stamp qualifies.
func witnessAtOrAfter[S any, D any, V any](ops stamp.Ops[S, D], q *queue.Queue[S, D, V], b S) bool {
	s, ok := q.NewestStamp()
	return ok && ops.Compare(s, b) >= 0
}
