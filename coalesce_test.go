// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// threeBlocks allocates A, B, C back to back, all the same size, plus
// a trailing pin so C has an allocated (not free) right neighbor —
// otherwise C would immediately absorb whatever free space Init left
// at the top of the heap, which would throw off every size arithmetic
// check below.
func threeBlocks(t *testing.T, a *Allocator, size int) (bp1, bp2, bp3 int, b1, b2, b3, pin []byte) {
	t.Helper()
	var err error
	b1, err = a.Malloc(size)
	require.NoError(t, err)
	b2, err = a.Malloc(size)
	require.NoError(t, err)
	b3, err = a.Malloc(size)
	require.NoError(t, err)
	pin, err = a.Malloc(8)
	require.NoError(t, err)
	return a.offsetOf(&b1[0]), a.offsetOf(&b2[0]), a.offsetOf(&b3[0]), b1, b2, b3, pin
}

func TestCoalesceNoNeighbors(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	bp1, bp2, bp3, _, b2, _, pin := threeBlocks(t, a, 32)
	sizeBefore := a.blockSize(bp2)

	require.NoError(t, a.Free(b2)) // A and C stay allocated: both of B's neighbors are alloc

	require.True(t, a.isAlloc(bp1))
	require.False(t, a.isAlloc(bp2))
	require.True(t, a.isAlloc(bp3))
	require.Equal(t, sizeBefore, a.blockSize(bp2), "an isolated free block must not change size")

	require.NoError(t, a.Free(pin))
	requireHeapOK(t, a)
}

func TestCoalesceMergeRight(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	_, bp2, bp3, _, b2, b3, pin := threeBlocks(t, a, 32)
	sizeBefore := a.blockSize(bp2) + a.blockSize(bp3)

	require.NoError(t, a.Free(b3))
	require.NoError(t, a.Free(b2))

	require.Equal(t, sizeBefore, a.blockSize(bp2))

	require.NoError(t, a.Free(pin))
	requireHeapOK(t, a)
}

func TestCoalesceMergeLeft(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	bp1, bp2, _, b1, b2, _, pin := threeBlocks(t, a, 32)
	sizeBefore := a.blockSize(bp1) + a.blockSize(bp2)

	require.NoError(t, a.Free(b1))
	require.NoError(t, a.Free(b2))

	require.Equal(t, sizeBefore, a.blockSize(bp1))

	require.NoError(t, a.Free(pin))
	requireHeapOK(t, a)
}

func TestCoalesceMergeBoth(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	bp1, bp2, bp3, b1, b2, b3, pin := threeBlocks(t, a, 32)
	sizeBefore := a.blockSize(bp1) + a.blockSize(bp2) + a.blockSize(bp3)

	require.NoError(t, a.Free(b1))
	require.NoError(t, a.Free(b3))
	require.NoError(t, a.Free(b2))

	require.Equal(t, sizeBefore, a.blockSize(bp1))

	require.NoError(t, a.Free(pin))
	requireHeapOK(t, a)
}
