package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchrobotics/flow/dispatch"
	"github.com/fetchrobotics/flow/stamp"
)

func TestInsertKeepsAscendingOrder(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 0)
	q.Insert(dispatch.New(3, "c"))
	q.Insert(dispatch.New(1, "a"))
	q.Insert(dispatch.New(2, "b"))

	require.Equal(t, 3, q.Size())
	assert.Equal(t, []int{1, 2, 3}, q.Snapshot())
}

func TestInsertPreservesOrderAmongEqualStamps(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 0)
	q.Insert(dispatch.New(1, "first"))
	q.Insert(dispatch.New(1, "second"))
	q.Insert(dispatch.New(1, "third"))

	require.Equal(t, 3, q.Size())
	assert.Equal(t, "first", q.At(0).Data())
	assert.Equal(t, "second", q.At(1).Data())
	assert.Equal(t, "third", q.At(2).Data())
}

func TestCapacityEvictsOldestBeforeInsert(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 2)
	q.Insert(dispatch.New(1, "a"))
	q.Insert(dispatch.New(2, "b"))
	q.Insert(dispatch.New(3, "c"))

	assert.Equal(t, []int{2, 3}, q.Snapshot())
	assert.EqualValues(t, 1, q.Dropped())
}

func TestRemoveBeforeIsStrict(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 0)
	for _, s := range []int{1, 2, 2, 3, 4} {
		q.Insert(dispatch.New(s, "x"))
	}

	n := q.RemoveBefore(2)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{2, 2, 3, 4}, q.Snapshot())
}

func TestRemoveAtOrBeforeIncludesEquals(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 0)
	for _, s := range []int{1, 2, 2, 3, 4} {
		q.Insert(dispatch.New(s, "x"))
	}

	n := q.RemoveAtOrBefore(2)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{3, 4}, q.Snapshot())
}

func TestIndexHelpers(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 0)
	for _, s := range []int{10, 20, 20, 30} {
		q.Insert(dispatch.New(s, "x"))
	}

	assert.Equal(t, 1, q.IndexAtOrAfter(15))
	assert.Equal(t, 1, q.IndexAtOrAfter(20))
	assert.Equal(t, 3, q.IndexAfter(20))
	assert.Equal(t, 4, q.IndexAtOrAfter(99))
	assert.Equal(t, 0, q.IndexAtOrAfter(0))
}

func TestPopOldestOnEmpty(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 0)
	_, ok := q.PopOldest()
	assert.False(t, ok)
	_, ok = q.OldestStamp()
	assert.False(t, ok)
}

func TestClearResetsDropCounter(t *testing.T) {
	q := New[int, int, string](stamp.IntOps[int](), 1)
	q.Insert(dispatch.New(1, "a"))
	q.Insert(dispatch.New(2, "b"))
	require.EqualValues(t, 1, q.Dropped())

	q.Clear()
	assert.True(t, q.Empty())
	assert.EqualValues(t, 0, q.Dropped())
}
