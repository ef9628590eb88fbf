// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// Block layout & tags.
//
// A block is addressed by its payload offset bp, an int byte offset into
// the Arena's backing slice (equivalently: an address with mem[0] as
// address zero). The header is the word immediately preceding bp; a free
// block also has a footer, the last word of the block. Allocated blocks
// carry no footer: the space is reclaimed by encoding the "previous block
// allocated" fact as a bit in the header of the next physical block
// instead (see setHeaderPreservePrev).

const (
	wordSize     = 4  // WSIZE
	dsize        = 8  // DSIZE
	minBlockSize = 16 // smallest legal block: header + two link words + footer

	allocMask     uint32 = 0x1 // bit 0: this block allocated
	prevAllocMask uint32 = 0x2 // bit 1: previous physical block allocated
	sizeMask      uint32 = ^uint32(0x7)
)

// pack composes a header/footer word from a size and the two status bits.
// size's low 3 bits must already be zero (every block is a multiple of 8).
func pack(size uint32, alloc, prevAlloc bool) uint32 {
	h := size & sizeMask
	if alloc {
		h |= allocMask
	}
	if prevAlloc {
		h |= prevAllocMask
	}
	return h
}

func blkSize(h uint32) uint32     { return h & sizeMask }
func blkAlloc(h uint32) bool      { return h&allocMask != 0 }
func blkPrevAlloc(h uint32) bool  { return h&prevAllocMask != 0 }

// getWord/putWord are the sole points where the Arena's byte slice is
// interpreted as 32-bit little-endian words; everything above this line
// works in plain offsets.
func (a *Arena) getWord(off int) uint32 {
	b := a.mem[off : off+wordSize : off+wordSize]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (a *Arena) putWord(off int, v uint32) {
	b := a.mem[off : off+wordSize : off+wordSize]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// hdrp/ftrp locate the header/footer of the block whose payload is bp.
// ftrp is only meaningful for a free block (or right after a header write
// that establishes the size used to compute it).
func hdrp(bp int) int { return bp - wordSize }

func (a *Allocator) ftrp(bp int) int {
	return bp + int(blkSize(a.header(bp))) - dsize
}

func (a *Allocator) header(bp int) uint32 { return a.arena.getWord(hdrp(bp)) }
func (a *Allocator) footer(bp int) uint32 { return a.arena.getWord(a.ftrp(bp)) }

func (a *Allocator) setHeader(bp int, v uint32) { a.arena.putWord(hdrp(bp), v) }
func (a *Allocator) setFooter(bp int, v uint32) { a.arena.putWord(a.ftrp(bp), v) }

func (a *Allocator) blockSize(bp int) uint32 { return blkSize(a.header(bp)) }
func (a *Allocator) isAlloc(bp int) bool     { return blkAlloc(a.header(bp)) }
func (a *Allocator) isPrevAlloc(bp int) bool { return blkPrevAlloc(a.header(bp)) }

// nextPhys returns the payload offset of the block physically following bp.
func (a *Allocator) nextPhys(bp int) int { return bp + int(a.blockSize(bp)) }

// prevPhys returns the payload offset of the block physically preceding
// bp. Valid only when bp's prev-alloc bit is clear, i.e. the previous
// block is free and therefore has a footer to read its size from.
func (a *Allocator) prevPhys(bp int) int {
	prevFooter := a.arena.getWord(bp - dsize)
	return bp - int(blkSize(prevFooter))
}

// setPrevAlloc/clearPrevAlloc toggle bit 1 of the header of the block
// physically following bp, without touching bp's own header.
func (a *Allocator) setPrevAlloc(bp int) {
	next := a.nextPhys(bp)
	a.setHeader(next, a.header(next)|prevAllocMask)
}

func (a *Allocator) clearPrevAlloc(bp int) {
	next := a.nextPhys(bp)
	a.setHeader(next, a.header(next)&^prevAllocMask)
}

// setHeaderPreservePrev rewrites bp's own header with a new size/alloc
// pair while keeping whatever prev-alloc bit was already recorded there.
// Every header write that does not simultaneously change the neighbor
// relationship must go through this helper, since allocated blocks
// carry no footer of their own to recover that bit from later.
func (a *Allocator) setHeaderPreservePrev(bp int, size uint32, alloc bool) {
	prevAlloc := a.isPrevAlloc(bp)
	a.setHeader(bp, pack(size, alloc, prevAlloc))
}
