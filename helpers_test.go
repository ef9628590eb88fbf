// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "testing"

// newTestAllocator builds an Allocator over a fixed-capacity in-memory
// Provider, ready for use. capacity should comfortably exceed whatever
// the test intends to allocate — memProvider never grows past it.
func newTestAllocator(t *testing.T, capacity int) *Allocator {
	t.Helper()
	a := New(NewMemProvider(capacity))
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return a
}

func requireHeapOK(t *testing.T, a *Allocator) {
	t.Helper()
	r := a.CheckHeap(false)
	if !r.OK() {
		for _, v := range r.Violations {
			t.Logf("violation: %s", v)
		}
		t.Fatalf("heap inconsistent: %d violation(s)", len(r.Violations))
	}
}
