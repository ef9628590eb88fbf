// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || netbsd || solaris

package memory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// unixProvider emulates sbrk on top of mmap/mprotect: it reserves
// maxBytes of address space once, PROT_NONE, and commits additional
// pages (PROT_READ|PROT_WRITE) as Grow advances the brk offset. This
// is what guarantees the region stays single, contiguous and
// monotonically growable — a plain append-growing []byte cannot make
// that guarantee, since Go may relocate the backing array.
//
// A segregated-list heap with boundary tags needs one heap, not many
// independent mappings per page or slab.
type unixProvider struct {
	region []byte // full reservation, PROT_NONE beyond `used`
	used   int
}

// NewUnixProvider reserves maxBytes of virtual address space for the
// managed region. The reservation is address space only; physical
// pages are committed lazily by Grow.
func NewUnixProvider(maxBytes int) (Provider, error) {
	region, err := unix.Mmap(-1, 0, maxBytes, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("memory: reserve %d bytes: %w", maxBytes, err)
	}
	return &unixProvider{region: region}, nil
}

func (p *unixProvider) Grow(n int) ([]byte, error) {
	newUsed := p.used + n
	if newUsed > len(p.region) {
		return nil, fmt.Errorf("memory: reservation of %d bytes exhausted (have %d, want %d more)",
			len(p.region), p.used, n)
	}

	pageSize := unix.Getpagesize()
	committed := roundup(newUsed, pageSize)
	if committed > len(p.region) {
		committed = len(p.region)
	}
	if err := unix.Mprotect(p.region[:committed], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return nil, fmt.Errorf("memory: commit pages: %w", err)
	}
	p.used = newUsed
	return p.region[:p.used], nil
}

func (p *unixProvider) Len() int { return p.used }

// Close releases the entire reservation, committed or not. The
// allocator itself never calls this; it exists so a long-running host
// process can tear an Arena down when it is done with it entirely.
func (p *unixProvider) Close() error {
	return unix.Munmap(p.region)
}
