// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlaceSplitsWhenRemainderIsLegal(t *testing.T) {
	a := newTestAllocator(t, 1<<16)

	// A big free block followed by allocating something much smaller
	// than it should leave a free remainder behind.
	big, err := a.Malloc(4096)
	require.NoError(t, err)
	bigBp := a.offsetOf(&big[0])
	require.NoError(t, a.Free(big))
	// bigBp's block may have merged with whatever free space sat next
	// to it at free time; measure the free block actually on offer.
	bigSize := a.blockSize(bigBp)

	small, err := a.Malloc(32)
	require.NoError(t, err)
	smallBp := a.offsetOf(&small[0])
	require.True(t, a.isAlloc(smallBp))
	require.Less(t, a.blockSize(smallBp), bigSize)

	rem := a.nextPhys(smallBp)
	require.False(t, a.isAlloc(rem))
	require.Equal(t, bigSize, a.blockSize(smallBp)+a.blockSize(rem))

	requireHeapOK(t, a)
}

func TestPlaceNoSplitWhenRemainderTooSmall(t *testing.T) {
	a := newTestAllocator(t, 1<<16)

	b, err := a.Malloc(32)
	require.NoError(t, err)
	bp := a.offsetOf(&b[0])
	full := a.blockSize(bp)

	// Pin an allocated neighbor on the right so freeing b can't
	// coalesce it with whatever free space follows.
	pin, err := a.Malloc(8)
	require.NoError(t, err)

	require.NoError(t, a.Free(b))

	// Request a size that adjusts to exactly full-8: an 8-byte
	// remainder is smaller than minBlockSize, so place must not split.
	want := int(full) - 12
	b2, err := a.Malloc(want)
	require.NoError(t, err)
	bp2 := a.offsetOf(&b2[0])
	require.Equal(t, full, a.blockSize(bp2))
	require.Equal(t, bp, bp2)

	require.NoError(t, a.Free(pin))
	requireHeapOK(t, a)
}
