// Package sink defines the append-only output contract that captors emit
// dispatches to, and a slice-backed default implementation.
package sink

import "github.com/fetchrobotics/flow/dispatch"

// Sink is an append-only consumer of emitted dispatches. The core invokes
// Append once per emitted dispatch, in stamp order, per stream. Concrete
// sinks supplied by embedders may forward into application queues, channels,
// or any other destination.
type Sink[S any, V any] interface {
	Append(d dispatch.Dispatch[S, V])
}

// Slice is a growable-slice Sink, suitable for tests, demos, and any
// caller that just wants the captured dispatches collected in order.
type Slice[S any, V any] struct {
	Values []dispatch.Dispatch[S, V]
}

// NewSlice constructs an empty Slice sink.
func NewSlice[S any, V any]() *Slice[S, V] {
	return &Slice[S, V]{}
}

// Append implements Sink.
func (s *Slice[S, V]) Append(d dispatch.Dispatch[S, V]) {
	s.Values = append(s.Values, d)
}

// Data returns just the data values, in emitted order — a convenience for
// callers that don't need the stamps.
func (s *Slice[S, V]) Data() []V {
	out := make([]V, len(s.Values))
	for i, d := range s.Values {
		out[i] = d.Data()
	}
	return out
}
