// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListOfBoundaries(t *testing.T) {
	require.Equal(t, 0, listOf(1))
	require.Equal(t, 0, listOf(16))
	require.Equal(t, 1, listOf(17))
	require.Equal(t, listNum-1, listOf(1<<30))
}

// TestList17Unreachable pins down that the non-monotonic classBounds
// entries (40000, then 32768) leave list 17 permanently empty, and
// that is intentional rather than a bug to fix.
func TestList17Unreachable(t *testing.T) {
	require.Greater(t, classBounds[16], classBounds[17], "list 16/17 bounds must stay non-monotonic for parity")
	for size := uint32(0); size <= uint32(classBounds[16])+64; size += 7919 {
		require.NotEqual(t, 17, listOf(size), "size %d must never route to the unreachable list", size)
	}
}

func TestListOfMonotonicOtherwiseNondecreasing(t *testing.T) {
	for i := range classBounds {
		if i == 16 || i == 17 {
			continue
		}
		if i == 0 {
			continue
		}
		require.Greater(t, classBounds[i], classBounds[i-1], "bound %d should exceed bound %d", i, i-1)
	}
}
