// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		size             uint32
		alloc, prevAlloc bool
	}{
		{16, false, false},
		{16, true, false},
		{16, false, true},
		{16, true, true},
		{1048576, true, true},
	} {
		h := pack(tc.size, tc.alloc, tc.prevAlloc)
		require.Equal(t, tc.size, blkSize(h))
		require.Equal(t, tc.alloc, blkAlloc(h))
		require.Equal(t, tc.prevAlloc, blkPrevAlloc(h))
	}
}

func TestGetPutWord(t *testing.T) {
	a := NewArena(NewMemProvider(4096))
	if _, err := a.Grow(64); err != nil {
		t.Fatal(err)
	}
	a.putWord(16, 0xdeadbeef)
	require.Equal(t, uint32(0xdeadbeef), a.getWord(16))
}

func TestSetHeaderPreservePrev(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	b, err := a.Malloc(32)
	require.NoError(t, err)
	bp := a.offsetOf(&b[0])

	before := a.isPrevAlloc(bp)
	a.setHeaderPreservePrev(bp, a.blockSize(bp), true)
	require.Equal(t, before, a.isPrevAlloc(bp), "setHeaderPreservePrev must not disturb the prev-alloc bit")
}
