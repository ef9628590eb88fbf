// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory implements a segregated-free-list dynamic storage
// allocator on top of a Provider-supplied, sbrk-style growable region.
//
// Blocks carry a boundary-tag header and, when free, a footer; an
// allocated block's footer is suppressed and replaced by a single
// prev-alloc bit in the following block's header. Free blocks are
// indexed by size class across a fixed number of doubly-linked lists
// threaded through the blocks themselves, addressed by 32-bit offsets
// from heap_base.
package memory

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/rs/zerolog"
)

// trace gates a stderr trace of every call to the four client-facing
// hot-path operations. It's a const so the compiler dead-code-eliminates
// the tracing branch entirely when false; flip it to debug by hand.
const trace = false

// defaultChunkSize is the number of bytes Init's first extension adds,
// and the least Malloc grows the arena by when no free block satisfies
// a request, unless the caller overrides it with WithChunkSize.
const defaultChunkSize = (1 << 8) - (1 << 5)

// headerWords is the fixed prefix every Arena carries before the first
// real block: 1 align pad + listNum free-list heads + prologue
// header + prologue footer + epilogue header.
const headerWords = 4 + listNum

// Options configure an Allocator at construction time. The zero value
// of Options is not meaningful on its own; use New with With* funcs.
type Options struct {
	chunkSize int
	logger    zerolog.Logger
}

// Option mutates Options; see WithChunkSize and WithLogger.
type Option func(*Options)

// WithChunkSize overrides the default heap-extension increment, the
// one constant callers are expected to want to tune.
func WithChunkSize(bytes int) Option {
	return func(o *Options) { o.chunkSize = bytes }
}

// WithLogger attaches a zerolog.Logger used by CheckHeap's verbose
// diagnostic output (see check.go). The zero Allocator uses a no-op
// logger: diagnostics are off unless asked for.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// Stats is a point-in-time snapshot of an Allocator's bookkeeping.
type Stats struct {
	Allocs     int // live allocation count
	LiveBytes  int // usable capacity of all live blocks (rounded, not the raw requested sizes)
	ArenaBytes int // total bytes obtained from the Provider
	Extends    int // number of extendHeap calls
}

// Allocator centralizes the process-wide state this package would
// otherwise need at package scope: the arena, heap_base, the free-list
// head array (addressed via arena + heapBase, see freelist.go) and the
// running stats all live here. The zero value is not ready for use;
// construct with New and call Init.
type Allocator struct {
	arena     *Arena
	heapBase  int // offset of the prologue payload; also freelist base
	chunkSize int
	logger    zerolog.Logger
	stats     Stats
}

// New constructs an Allocator over the given Provider. Call Init
// before any other method.
func New(p Provider, opts ...Option) *Allocator {
	o := Options{chunkSize: defaultChunkSize, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Allocator{
		arena:     NewArena(p),
		chunkSize: o.chunkSize,
		logger:    o.logger,
	}
}

// Init lays out the heap prefix (pad, free-list heads, prologue,
// epilogue) and performs the first heap extension. It must be called
// exactly once, before any Malloc/Free/Realloc/Calloc/CheckHeap call.
func (a *Allocator) Init() error {
	base, err := a.arena.Grow(headerWords * wordSize)
	if err != nil {
		return fmt.Errorf("%w: init: %v", ErrOutOfMemory, err)
	}

	padOff := base
	headsOff := padOff + wordSize
	prologueHdrOff := headsOff + listNum*wordSize
	prologueFtrOff := prologueHdrOff + wordSize
	epilogueHdrOff := prologueFtrOff + wordSize

	a.arena.putWord(padOff, 0)
	for i := 0; i < listNum; i++ {
		a.arena.putWord(headsOff+i*wordSize, 0)
	}

	prologue := pack(dsize, true, true) // prologue's prev-alloc bit stays set always
	a.arena.putWord(prologueHdrOff, prologue)
	a.arena.putWord(prologueFtrOff, prologue)
	a.arena.putWord(epilogueHdrOff, pack(0, true, true)) // prologue (its predecessor) is allocated

	a.heapBase = prologueFtrOff

	if _, err := a.extendHeap(a.chunkSize / wordSize); err != nil {
		return fmt.Errorf("%w: initial extend: %v", ErrOutOfMemory, err)
	}
	return nil
}

// extendHeap grows the arena by words*wordSize bytes (words rounded up
// to even, to keep every block double-word aligned) and turns the new
// region into one free block, coalesced with whatever free block may
// already sit at the old top of the heap. It returns the (possibly
// merged) block's payload offset.
func (a *Allocator) extendHeap(words int) (int, error) {
	if words%2 != 0 {
		words++
	}
	bytes := words * wordSize
	if bytes < minBlockSize {
		bytes = minBlockSize
		words = bytes / wordSize
	}

	epilogueOff := a.arena.Len() - wordSize
	prevAlloc := blkPrevAlloc(a.arena.getWord(epilogueOff))

	bp, err := a.arena.Grow(bytes)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	a.setHeader(bp, pack(uint32(bytes), false, prevAlloc))
	a.setFooter(bp, a.header(bp))
	a.arena.putWord(bp+bytes-wordSize, pack(0, true, false)) // new epilogue

	a.stats.Extends++
	a.stats.ArenaBytes = a.arena.Len()
	return a.coalesce(bp), nil
}

// adjustedSize computes asize from a requested payload size: once the
// payload is big enough to need its own header word, round size+WSIZE
// up to a DSIZE multiple; below that, use the minimum block size.
func adjustedSize(size int) uint32 {
	if size > dsize {
		return uint32(roundup(size+wordSize, dsize))
	}
	return minBlockSize
}

// Malloc allocates size bytes and returns a slice over them. It
// returns (nil, nil) for size == 0 and (nil, ErrInvalidSize) for
// size < 0.
func (a *Allocator) Malloc(size int) (r []byte, err error) {
	if trace {
		defer func() {
			var p *byte
			if len(r) != 0 {
				p = &r[0]
			}
			fmt.Fprintf(os.Stderr, "Malloc(%#x) %p, %v\n", size, p, err)
		}()
	}
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return nil, nil
	}

	asize := adjustedSize(size)
	bp := a.freelistFindFirst(asize)
	if bp == 0 {
		want := int(asize)
		if a.chunkSize > want {
			want = a.chunkSize
		}
		var err error
		bp, err = a.extendHeap(roundup(want, dsize) / wordSize)
		if err != nil {
			return nil, err
		}
		// want >= asize and extendHeap never shrinks what it's asked
		// to add, so the returned (possibly coalesced) block is always
		// big enough for asize.
	}

	bp = a.place(bp, asize)
	a.stats.Allocs++
	capLen := int(a.blockSize(bp)) - wordSize
	a.stats.LiveBytes += capLen

	return a.arena.mem[bp : bp+size : bp+capLen], nil
}

// Calloc is like Malloc except the returned memory is zeroed.
func (a *Allocator) Calloc(n, elem int) (r []byte, err error) {
	if trace {
		defer func() {
			var p *byte
			if len(r) != 0 {
				p = &r[0]
			}
			fmt.Fprintf(os.Stderr, "Calloc(%#x, %#x) %p, %v\n", n, elem, p, err)
		}()
	}
	b, err := a.Malloc(n * elem)
	if err != nil || b == nil {
		return b, err
	}
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// offsetOf recovers a byte's offset within the Arena's backing slice.
func (a *Allocator) offsetOf(p *byte) int {
	return int(uintptr(unsafe.Pointer(p)) - uintptr(unsafe.Pointer(&a.arena.mem[0])))
}

// Free releases the block backing b. A nil or zero-capacity b is a
// no-op; freeing anything else is the caller's responsibility to have
// gotten from Malloc, Calloc or Realloc.
func (a *Allocator) Free(b []byte) (err error) {
	if trace {
		var p *byte
		if len(b) != 0 {
			p = &b[0]
		}
		defer func() {
			fmt.Fprintf(os.Stderr, "Free(%p) %v\n", p, err)
		}()
	}
	b = b[:cap(b)]
	if len(b) == 0 {
		return nil
	}

	bp := a.offsetOf(&b[0])
	size := a.blockSize(bp)
	a.setHeaderPreservePrev(bp, size, false)
	a.setFooter(bp, a.header(bp))
	a.clearPrevAlloc(bp)
	a.coalesce(bp)

	a.stats.Allocs--
	a.stats.LiveBytes -= int(size) - wordSize
	return nil
}

// Realloc changes the size of b's backing block. size==0 behaves like
// Free; a nil/zero-capacity b behaves like Malloc. Otherwise a new
// block is allocated, the lesser of the old block's usable size and the
// new requested size is copied, and the old block is freed.
func (a *Allocator) Realloc(b []byte, size int) (r []byte, err error) {
	if trace {
		var p *byte
		if len(b) != 0 {
			p = &b[0]
		}
		defer func() {
			var q *byte
			if len(r) != 0 {
				q = &r[0]
			}
			fmt.Fprintf(os.Stderr, "Realloc(%p, %#x) %p, %v\n", p, size, q, err)
		}()
	}
	if size == 0 {
		return nil, a.Free(b)
	}
	if cap(b) == 0 {
		return a.Malloc(size)
	}

	full := b[:cap(b)]
	bp := a.offsetOf(&full[0])
	oldPayload := int(a.blockSize(bp)) - wordSize

	newB, err := a.Malloc(size)
	if err != nil {
		return nil, err
	}

	n := size
	if oldPayload < n {
		n = oldPayload
	}
	copy(newB[:n], full[:n])
	if err := a.Free(b); err != nil {
		return nil, err
	}
	return newB, nil
}

// Stats returns a snapshot of the allocator's bookkeeping.
func (a *Allocator) Stats() Stats { return a.stats }

// HeapBase exposes the prologue-payload offset the checker and tests
// use as the root of a physical walk.
func (a *Allocator) HeapBase() int { return a.heapBase }

// ArenaLen is the current size, in bytes, of the managed region.
func (a *Allocator) ArenaLen() int { return a.arena.Len() }
