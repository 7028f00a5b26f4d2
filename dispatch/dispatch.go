// Package dispatch defines the immutable element wrapper that flows through
// capture queues: a stamp paired with a data value.
package dispatch

// Dispatch wraps a data value V with its sequencing stamp S. Dispatches are
// immutable once constructed and are totally ordered by stamp; equal stamps
// preserve insertion order within a Queue.
type Dispatch[S any, V any] struct {
	stamp S
	data  V
}

// New constructs a Dispatch from a stamp and a data value.
func New[S any, V any](s S, v V) Dispatch[S, V] {
	return Dispatch[S, V]{stamp: s, data: v}
}

// Stamp returns the sequencing stamp.
func (d Dispatch[S, V]) Stamp() S { return d.stamp }

// Data returns the wrapped value.
func (d Dispatch[S, V]) Data() V { return d.data }
