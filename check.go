// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "fmt"

// Violation describes one failure of a heap invariant found by
// CheckHeap. CheckHeap never mutates state to produce these, and a
// broken invariant is reported rather than fatal: the walk continues
// past the first one found.
type Violation struct {
	Kind   string // e.g. "min-size", "adjacent-free", "wrong-list"
	Offset int    // block payload offset the violation is anchored to
	Detail string
}

func (v Violation) String() string {
	if v.Detail == "" {
		return fmt.Sprintf("%s at %#x", v.Kind, v.Offset)
	}
	return fmt.Sprintf("%s at %#x: %s", v.Kind, v.Offset, v.Detail)
}

// Report is CheckHeap's result: every violation found during one pass,
// in the order the corresponding check ran.
type Report struct {
	Violations []Violation
}

// OK reports whether the heap was found consistent.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// CheckHeap walks the heap twice — once physically (headers, footers,
// tags) and once through the free-list index — and cross-checks the
// two. It never writes to the heap. When verbose is true each
// violation is also emitted as a structured log event.
//
// The minimum-size check reads the size through the block's header
// accessor rather than treating bp itself as if it held a size field,
// so it actually exercises the size bits instead of trivially passing.
func (a *Allocator) CheckHeap(verbose bool) Report {
	var r Report
	add := func(kind string, off int, detail string) {
		r.Violations = append(r.Violations, Violation{Kind: kind, Offset: off, Detail: detail})
	}

	seenFree := map[int]bool{}

	// Physical walk: P2 (coverage), P3 (tag consistency), P4 (no
	// adjacent frees), P6 (minimum size).
	bp := a.nextPhys(a.heapBase)
	prevAlloc := true // prologue, bp's predecessor at the first iteration, is allocated
	for {
		size := a.blockSize(bp)
		if size == 0 {
			break // epilogue reached: every byte between prologue and here walked
		}

		if size < minBlockSize || size%dsize != 0 {
			add("min-size", bp, fmt.Sprintf("size %d", size))
		}

		hdr := a.header(bp)
		if blkPrevAlloc(hdr) != prevAlloc {
			add("prev-alloc-bit", bp, fmt.Sprintf("header says %v, physical predecessor is %v", blkPrevAlloc(hdr), prevAlloc))
		}

		alloc := blkAlloc(hdr)
		if !alloc {
			if !prevAlloc {
				add("adjacent-free", bp, "physically adjacent to another free block")
			}
			if a.footer(bp) != hdr {
				add("header-footer-mismatch", bp, fmt.Sprintf("header %#x footer %#x", hdr, a.footer(bp)))
			}
			seenFree[bp] = true
		}

		prevAlloc = alloc
		bp = a.nextPhys(bp)
	}

	// Free-list walk: P5, both directions.
	listSeen := map[int]bool{}
	for i := 0; i < listNum; i++ {
		for bp := a.getHead(i); bp != 0; bp = a.nodeNext(bp) {
			if listSeen[bp] {
				add("freelist-cycle", bp, fmt.Sprintf("already visited in list %d", i))
				break
			}
			listSeen[bp] = true

			if a.isAlloc(bp) {
				add("freelist-block-allocated", bp, fmt.Sprintf("list %d holds an allocated block", i))
			}
			if want := listOf(a.blockSize(bp)); want != i {
				add("wrong-list", bp, fmt.Sprintf("size %d belongs in list %d, found in list %d", a.blockSize(bp), want, i))
			}
			if !seenFree[bp] {
				add("freelist-block-unreachable", bp, fmt.Sprintf("list %d entry not found by physical walk", i))
			}
		}
	}
	for bp := range seenFree {
		if !listSeen[bp] {
			add("missing-from-freelist", bp, "free block not present in any free list")
		}
	}

	if verbose {
		a.logReport(r)
	}
	return r
}

func (a *Allocator) logReport(r Report) {
	if len(r.Violations) == 0 {
		a.logger.Info().Msg("check_heap: no violations")
		return
	}
	for _, v := range r.Violations {
		a.logger.Warn().
			Str("kind", v.Kind).
			Int("offset", v.Offset).
			Str("detail", v.Detail).
			Msg("heap invariant violation")
	}
}
