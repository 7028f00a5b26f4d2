// Package flow synchronizes multiple timestamped data streams into joint
// tuples, the way ROS's message_filters package does: one stream drives
// capture, the rest react within a window around the driver's range.
//
// A Group performs every multi-stream capture under a single lock policy,
// held for the whole dry-run-then-mutate pass, so the driver's DryCapture
// and every follower's DryCaptureAgainst see a consistent snapshot and the
// subsequent mutation (on PRIMED) or retention cleanup (on ABORT) can never
// race against a concurrent Inject.
package flow

import (
	"context"
	"time"

	"github.com/fetchrobotics/flow/captor"
	"github.com/fetchrobotics/flow/lockpolicy"
	"github.com/fetchrobotics/flow/policy"
	"github.com/fetchrobotics/flow/zlog"
)

// Group ties one driver captor to zero or more follower captors, all
// sharing lock. Building the captors with the same lockpolicy.Policy
// instance passed to New is what gives the group atomic, cross-stream
// capture: Group never acquires a lock its captors don't already share.
type Group[S any] struct {
	name      string
	lock      lockpolicy.Policy
	driver    captor.Driver[S]
	followers []captor.Follower[S]
	log       zlog.Logger
}

// Option configures a Group at construction.
type Option[S any] func(*Group[S])

// WithLogger attaches a zlog.Logger that records capture and abort events.
// Groups are silent by default.
func WithLogger[S any](l zlog.Logger) Option[S] {
	return func(g *Group[S]) { g.log = l }
}

// New constructs a Group named name. lock must be the same lockpolicy.Policy
// instance the driver and every follower were constructed with.
func New[S any](name string, lock lockpolicy.Policy, driver captor.Driver[S], followers []captor.Follower[S], opts ...Option[S]) *Group[S] {
	g := &Group[S]{name: name, lock: lock, driver: driver, followers: followers}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// evaluateLocked runs the dry-run pass: the driver proposes a Range, every
// follower is asked whether it can satisfy that Range, and the individual
// states reduce to one group verdict (ABORT beats RETRY beats PRIMED). If the
// driver is not PRIMED it has no Range to propose, and its state is returned
// without consulting the followers. The caller must hold lock.
func (g *Group[S]) evaluateLocked() (policy.Range[S], policy.State) {
	r, st := g.driver.DryCapture()
	if st != policy.Primed {
		return r, st
	}
	for _, f := range g.followers {
		st = policy.Reduce(st, f.DryCaptureAgainst(r))
	}
	return r, st
}

// captureLocked re-evaluates and then mutates: on PRIMED every captor
// emits and retires its consumed elements; on ABORT every captor retires
// up to the driver's upper bound instead, so the group can make progress
// on the next range. The caller must hold lock.
func (g *Group[S]) captureLocked() (policy.Range[S], policy.State) {
	r, st := g.evaluateLocked()
	switch st {
	case policy.Primed:
		g.driver.Capture()
		for _, f := range g.followers {
			f.CaptureAgainst(r)
		}
		g.log.Capture(g.name, st.String(), r.Lower, r.Upper)
		return r, policy.Primed
	case policy.Abort:
		g.driver.Abort(r.Upper)
		for _, f := range g.followers {
			f.Abort(r.Upper)
		}
		g.log.Aborted(g.name, r.Upper)
		return r, policy.Abort
	default:
		return r, st
	}
}

// DryCapture reports the group's current readiness without mutating any
// captor. It never blocks.
func (g *Group[S]) DryCapture() (policy.Range[S], policy.State) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.evaluateLocked()
}

// TryCapture attempts one capture immediately: PRIMED or ABORT mutate the
// group's captors, RETRY leaves everything untouched. It never blocks.
func (g *Group[S]) TryCapture() (policy.Range[S], policy.State) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.captureLocked()
}

// CaptureUntil blocks until the group becomes ready, deadline passes, or
// ctx is done, then performs the same mutation TryCapture would. A zero
// deadline blocks until ctx is done with no time limit of its own.
func (g *Group[S]) CaptureUntil(ctx context.Context, deadline time.Time) (policy.Range[S], policy.State) {
	g.lock.Lock()
	defer g.lock.Unlock()

	ready := g.lock.WaitUntil(deadline, ctx.Done(), func() bool {
		_, st := g.evaluateLocked()
		return st != policy.Retry
	})
	if !ready {
		r, _ := g.evaluateLocked()
		return r, policy.Timeout
	}
	return g.captureLocked()
}

// Capture blocks until the group becomes ready or ctx is done (honoring
// ctx's own deadline if it has one), then performs the same mutation
// TryCapture would.
func (g *Group[S]) Capture(ctx context.Context) (policy.Range[S], policy.State) {
	deadline, _ := ctx.Deadline()
	return g.CaptureUntil(ctx, deadline)
}

// Abort broadcasts an abort signal at stamp to every captor in the group,
// each retiring every queued element with stamp at or before stamp. Follower
// delays are not applied to the abort stamp.
func (g *Group[S]) Abort(stamp S) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.driver.Abort(stamp)
	for _, f := range g.followers {
		f.Abort(stamp)
	}
	g.log.Aborted(g.name, stamp)
}

// Reset clears every captor's queue and policy-internal memory.
func (g *Group[S]) Reset() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.driver.Reset()
	for _, f := range g.followers {
		f.Reset()
	}
}

// Dump returns a point-in-time diagnostic snapshot of every captor in the
// group, driver first. It is not part of the capture algorithm.
func (g *Group[S]) Dump() []captor.Stats {
	g.lock.Lock()
	defer g.lock.Unlock()
	out := make([]captor.Stats, 0, 1+len(g.followers))
	out = append(out, g.driver.Stats())
	for _, f := range g.followers {
		out = append(out, f.Stats())
	}
	return out
}
