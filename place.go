// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// place carves an allocation of asize bytes out of the free block bp
// (whose size csize is already known to be >= asize), splitting off
// and reinserting the remainder when it would still be a legal block.
// It returns bp, now allocated.
func (a *Allocator) place(bp int, asize uint32) int {
	a.freelistRemove(bp)
	csize := a.blockSize(bp)

	if csize-asize >= minBlockSize {
		a.setHeaderPreservePrev(bp, asize, true)
		a.setPrevAlloc(bp)

		rem := a.nextPhys(bp)
		remSize := csize - asize
		// rem is new: there is nothing to "preserve" in its header yet,
		// so its prev-alloc bit (bp is now allocated) is set directly
		// rather than through setHeaderPreservePrev.
		a.setHeader(rem, pack(remSize, false, true))
		a.setFooter(rem, a.header(rem))
		a.freelistInsert(rem)
		a.clearPrevAlloc(rem)
	} else {
		a.setHeaderPreservePrev(bp, csize, true)
		a.setPrevAlloc(bp)
	}

	return bp
}
