// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build windows

package memory

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsProvider is the Windows analogue of unixProvider: reserve the
// full region with VirtualAlloc(MEM_RESERVE) once, then commit more of
// it (MEM_COMMIT) as Grow advances — a two-step split between
// describing the mapping and faulting pages in.
type windowsProvider struct {
	base uintptr
	size int
	used int
}

// NewWindowsProvider reserves maxBytes of address space for the
// managed region.
func NewWindowsProvider(maxBytes int) (Provider, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(maxBytes), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, fmt.Errorf("memory: reserve %d bytes: %w", maxBytes, err)
	}
	return &windowsProvider{base: addr, size: maxBytes}, nil
}

func (p *windowsProvider) Grow(n int) ([]byte, error) {
	newUsed := p.used + n
	if newUsed > p.size {
		return nil, fmt.Errorf("memory: reservation of %d bytes exhausted (have %d, want %d more)",
			p.size, p.used, n)
	}

	if _, err := windows.VirtualAlloc(p.base, uintptr(newUsed), windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
		return nil, fmt.Errorf("memory: commit pages: %w", err)
	}
	p.used = newUsed
	return unsafe.Slice((*byte)(unsafe.Pointer(p.base)), p.used), nil
}

func (p *windowsProvider) Len() int { return p.used }

// Close releases the entire reservation. See unixProvider.Close: the
// allocator itself never calls this.
func (p *windowsProvider) Close() error {
	return windows.VirtualFree(p.base, 0, windows.MEM_RELEASE)
}
