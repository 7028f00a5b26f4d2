package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchrobotics/flow/captor"
	"github.com/fetchrobotics/flow/lockpolicy"
	"github.com/fetchrobotics/flow/policy"
	"github.com/fetchrobotics/flow/sink"
	"github.com/fetchrobotics/flow/stamp"
)

func newIntDriver(ops stamp.Ops[int, int], lock lockpolicy.Policy, p policy.Driver[int, int, string]) (*captor.Captor[int, int, string], *sink.Slice[int, string]) {
	out := sink.NewSlice[int, string]()
	return captor.NewDriver[int, int, string](ops, 0, lock, p, out), out
}

func newIntFollower(ops stamp.Ops[int, int], lock lockpolicy.Policy, p policy.Follower[int, int, string]) (*captor.Captor[int, int, string], *sink.Slice[int, string]) {
	out := sink.NewSlice[int, string]()
	return captor.NewFollower[int, int, string](ops, 0, lock, p, out), out
}

func TestGroupCapturesWhenAllMembersPrime(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.None{}

	driver, driverOut := newIntDriver(ops, lock, policy.Next[int, int, string]())
	follower, followerOut := newIntFollower(ops, lock, policy.AnyBefore[int, int, string](ops, 0))

	g := New[int]("test", lock, driver, []captor.Follower[int]{follower})

	driver.Inject(10, "driver-10")
	follower.Inject(3, "f-3")
	follower.Inject(4, "f-4")

	r, st := g.TryCapture()
	require.Equal(t, policy.Primed, st)
	assert.Equal(t, policy.Range[int]{Lower: 10, Upper: 10}, r)
	assert.Equal(t, []string{"driver-10"}, driverOut.Data())
	assert.Equal(t, []string{"f-3", "f-4"}, followerOut.Data())
}

func TestGroupRetriesUntilFollowerHasData(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.None{}

	driver, _ := newIntDriver(ops, lock, policy.Next[int, int, string]())
	follower, _ := newIntFollower(ops, lock, policy.Before[int, int, string](ops, 0))

	g := New[int]("test", lock, driver, []captor.Follower[int]{follower})

	driver.Inject(10, "driver-10")

	_, st := g.TryCapture()
	assert.Equal(t, policy.Retry, st, "follower has no witness past the boundary yet")
}

func TestGroupAbortsAndRetiresEveryMember(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.None{}

	driver, _ := newIntDriver(ops, lock, policy.Next[int, int, string]())
	follower, _ := newIntFollower(ops, lock, policy.MatchedStamp[int, int, string](ops))

	g := New[int]("test", lock, driver, []captor.Follower[int]{follower})

	driver.Inject(10, "driver-10")
	follower.Inject(11, "f-11") // past 10 with no exact match -> follower ABORTs

	r, st := g.TryCapture()
	require.Equal(t, policy.Abort, st)
	assert.Equal(t, 10, r.Upper)
	assert.True(t, driver.Empty(), "driver abort retires everything at or before the abort stamp")
}

func TestGroupCaptureUntilBlocksThenSucceeds(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.NewMutexed()

	driver, driverOut := newIntDriver(ops, lock, policy.Next[int, int, string]())
	g := New[int]("test", lock, driver, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		driver.Inject(7, "late")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	r, st := g.Capture(ctx)
	require.Equal(t, policy.Primed, st)
	assert.Equal(t, 7, r.Lower)
	assert.Equal(t, []string{"late"}, driverOut.Data())
}

func TestGroupCaptureUntilTimesOut(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.NewMutexed()

	driver, _ := newIntDriver(ops, lock, policy.Next[int, int, string]())
	g := New[int]("test", lock, driver, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, st := g.Capture(ctx)
	assert.Equal(t, policy.Timeout, st)
}

func TestGroupResetClearsEveryMember(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.None{}

	driver, _ := newIntDriver(ops, lock, policy.Next[int, int, string]())
	follower, _ := newIntFollower(ops, lock, policy.AnyBefore[int, int, string](ops, 0))
	g := New[int]("test", lock, driver, []captor.Follower[int]{follower})

	driver.Inject(1, "a")
	follower.Inject(1, "b")

	g.Reset()

	assert.True(t, driver.Empty())
	assert.True(t, follower.Empty())
}

func TestGroupDump(t *testing.T) {
	ops := stamp.IntOps[int]()
	lock := lockpolicy.None{}

	driver, _ := newIntDriver(ops, lock, policy.Next[int, int, string]())
	follower, _ := newIntFollower(ops, lock, policy.AnyBefore[int, int, string](ops, 0))
	g := New[int]("test", lock, driver, []captor.Follower[int]{follower})

	driver.Inject(1, "a")
	follower.Inject(1, "b")
	follower.Inject(2, "c")

	dump := g.Dump()
	require.Len(t, dump, 2)
	assert.Equal(t, 1, dump[0].Size)
	assert.Equal(t, 2, dump[1].Size)
}
