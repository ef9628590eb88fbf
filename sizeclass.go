// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// listNum is LIST_NUM: the number of segregated free lists.
const listNum = 24

// classBounds holds the upper bound, in bytes, of every size class but
// the last (a catch-all for anything larger than classBounds[len-1]).
// listOf returns the index of the first entry whose bound is >= the
// requested size, scanning in this order — so the table's order, not
// its numeric sort order, is what determines placement.
//
// Entries 16 and 17 (40000, then 32768) are kept in this non-monotonic
// order on purpose. Since listOf stops at the first satisfying bound
// and 16's bound (40000) is larger than 17's (32768), any size that
// reaches index 17 already failed "size <= 40000" and therefore also
// fails "size <= 32768" — list 17 is permanently empty. That is intentional, not
// a latent bug.
var classBounds = [listNum - 1]int{
	16, 24, 48, 128, 256, 512, 1024, 2048, 4096,
	9200, 12000, 16000, 20000, 24000, 28000, 32000,
	40000, // list 16
	32768, // list 17 — see comment above
	65536, 131072, 262144, 524288, 1048576,
}

// listOf maps a block size to the index of the free list holding
// blocks of that size class.
func listOf(size uint32) int {
	for i, bound := range classBounds {
		if size <= uint32(bound) {
			return i
		}
	}
	return listNum - 1
}
