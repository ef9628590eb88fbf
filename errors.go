// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "errors"

// Error kinds. ErrArenaExhausted (arena.go) is the Provider-level
// signal; ErrOutOfMemory is what callers of Malloc, Calloc and Realloc
// see once it has propagated up through extendHeap. A broken heap
// invariant has no error value at all — it is reported, never
// returned, by CheckHeap (see check.go).
var (
	// ErrOutOfMemory means the Provider could not grow the region
	// any further. Surfaces as a nil payload from Malloc/Calloc/
	// Realloc, and as a non-nil error from Init.
	ErrOutOfMemory = errors.New("memory: out of memory")

	// ErrInvalidSize is returned for a negative size argument.
	ErrInvalidSize = errors.New("memory: invalid size")
)
