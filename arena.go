// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"errors"
	"fmt"

	"github.com/cznic/mathutil"
)

// maxArenaBytes bounds the managed region: free-list links are 32-bit
// offsets from heap_base, so an Arena can never grow past 2^32 bytes.
const maxArenaBytes = 1 << 32

// ErrArenaExhausted is returned (wrapped) by Arena.Grow when the
// managed region cannot grow any further: the Provider failed, or the
// 32-bit offset limit would be exceeded.
var ErrArenaExhausted = errors.New("memory: arena exhausted")

// Provider is the sbrk collaborator: it owns a single contiguous,
// monotonically-growable byte region and hands out more of it on
// request. Implementations must return a region contiguous with
// everything previously returned — Grow(n) extends the region by n
// bytes, and the new bytes are always result[priorLen:priorLen+n].
//
// Arena is the adapter between it and the allocator above.
type Provider interface {
	// Grow extends the managed region by n bytes and returns the
	// full region (not just the new tail) for the Arena to rebind
	// its slice to. It returns a non-nil error on failure, which
	// Arena.Grow wraps in ErrArenaExhausted.
	Grow(n int) ([]byte, error)

	// Len reports the current size of the managed region.
	Len() int
}

// Arena adapts a Provider into the flat, offset-addressed byte store
// the rest of this package operates on. mem[0] is treated as address
// zero; every "pointer" elsewhere in this package is an int offset
// into mem.
type Arena struct {
	provider Provider
	mem      []byte
}

// NewArena wraps a Provider. The Arena holds no bytes until the first
// Grow call, made by Allocator.Init.
func NewArena(p Provider) *Arena {
	return &Arena{provider: p}
}

// Len is the current size, in bytes, of the managed region.
func (a *Arena) Len() int { return len(a.mem) }

// Grow extends the region by n bytes and returns the offset at which
// the new region begins.
func (a *Arena) Grow(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("memory: invalid grow amount %d", n)
	}
	base := len(a.mem)
	if base+n > maxArenaBytes {
		return 0, fmt.Errorf("%w: would exceed %d-byte offset limit", ErrArenaExhausted, maxArenaBytes)
	}
	mem, err := a.provider.Grow(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArenaExhausted, err)
	}
	if len(mem) != base+n {
		return 0, fmt.Errorf("memory: provider returned %d bytes, want %d", len(mem), base+n)
	}
	a.mem = mem
	// mathutil.BitLen(x) is the number of bits needed to represent x;
	// asserting it against 32 confirms the 32-bit free-list offset
	// invariant still holds after this growth.
	if mathutil.BitLen(len(a.mem)-1) > 32 {
		return 0, fmt.Errorf("%w: region would need >32-bit offsets", ErrArenaExhausted)
	}
	return base, nil
}
