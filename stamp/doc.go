// Package stamp defines the sequencing-stamp trait used throughout flow.
//
// A stamp is a totally ordered value attached to every piece of data flowing
// through a captor. Because Go generics cannot express arithmetic operators
// over an arbitrary type parameter, the arithmetic (min, max, add, subtract,
// compare) is supplied as a value — an Ops[S, D] implementation — rather than
// as a type constraint. Two default implementations are provided: IntOps for
// integer-valued stamps and TimeOps for time.Time stamps with time.Duration
// offsets.
package stamp
