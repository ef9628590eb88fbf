// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command allocdemo drives an Allocator through six end-to-end
// scenarios against a real Arena-backed heap and prints a short
// pass/fail summary for each.
package main

import (
	"fmt"
	"os"

	memory "github.com/MujingZhou/Mar.2015-Dynamic-Storage-Allocator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type scenario struct {
	name string
	run  func(a *memory.Allocator) error
}

var scenarios = []scenario{
	{"reuse freed region", scenarioReuse},
	{"coalesce across three frees", scenarioCoalesceThree},
	{"mixed-size LIFO free", scenarioMixedLIFO},
	{"realloc preserves prefix", scenarioReallocPreservesPrefix},
	{"calloc zeroes", scenarioCallocZeroes},
	{"free-every-other reuses free list", scenarioFreeEveryOther},
}

func newAllocator() (*memory.Allocator, error) {
	a := memory.New(memory.NewMemProvider(64 << 20))
	if err := a.Init(); err != nil {
		return nil, err
	}
	return a, nil
}

func scenarioReuse(a *memory.Allocator) error {
	p, err := a.Malloc(1)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("allocate(1) returned nil")
	}
	top := a.ArenaLen()
	if err := a.Free(p); err != nil {
		return err
	}
	if _, err := a.Malloc(1); err != nil {
		return err
	}
	if a.ArenaLen() != top {
		return fmt.Errorf("allocate(1) after free grew the arena instead of reusing it: %d -> %d", top, a.ArenaLen())
	}
	return nil
}

func scenarioCoalesceThree(a *memory.Allocator) error {
	x, err := a.Malloc(24)
	if err != nil {
		return err
	}
	y, err := a.Malloc(24)
	if err != nil {
		return err
	}
	z, err := a.Malloc(24)
	if err != nil {
		return err
	}
	if err := a.Free(y); err != nil {
		return err
	}
	if err := a.Free(x); err != nil {
		return err
	}
	if err := a.Free(z); err != nil {
		return err
	}
	r := a.CheckHeap(false)
	if !r.OK() {
		return fmt.Errorf("heap inconsistent after coalescing: %v", r.Violations)
	}
	return nil
}

func scenarioMixedLIFO(a *memory.Allocator) error {
	sizes := []int{8, 16, 112, 128, 4096, 100000}
	var blocks [][]byte
	for _, s := range sizes {
		b, err := a.Malloc(s)
		if err != nil {
			return fmt.Errorf("allocate(%d): %w", s, err)
		}
		blocks = append(blocks, b)
		if r := a.CheckHeap(false); !r.OK() {
			return fmt.Errorf("heap inconsistent after allocate(%d): %v", s, r.Violations)
		}
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		if err := a.Free(blocks[i]); err != nil {
			return err
		}
		if r := a.CheckHeap(false); !r.OK() {
			return fmt.Errorf("heap inconsistent after free #%d: %v", len(blocks)-i, r.Violations)
		}
	}
	return nil
}

func scenarioReallocPreservesPrefix(a *memory.Allocator) error {
	p, err := a.Malloc(100)
	if err != nil {
		return err
	}
	for i := range p {
		p[i] = byte(i)
	}
	q, err := a.Realloc(p, 200)
	if err != nil {
		return err
	}
	for i := 0; i < 100; i++ {
		if q[i] != byte(i) {
			return fmt.Errorf("byte %d: want %d, got %d", i, byte(i), q[i])
		}
	}
	return nil
}

func scenarioCallocZeroes(a *memory.Allocator) error {
	p, err := a.Calloc(1000, 1)
	if err != nil {
		return err
	}
	for i, b := range p {
		if b != 0 {
			return fmt.Errorf("byte %d not zero", i)
		}
	}
	return nil
}

func scenarioFreeEveryOther(a *memory.Allocator) error {
	const n = 40
	const size = 32
	var blocks [][]byte
	for i := 0; i < n; i++ {
		b, err := a.Malloc(size)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}
	before := a.Stats().Allocs
	for i := 0; i < n; i += 2 {
		if err := a.Free(blocks[i]); err != nil {
			return err
		}
	}
	after := a.Stats().Allocs
	if want := before - n/2; after != want {
		return fmt.Errorf("allocs after freeing every other block: want %d, got %d", want, after)
	}
	top := a.ArenaLen()
	if _, err := a.Malloc(size); err != nil {
		return fmt.Errorf("reuse allocation failed: %w", err)
	}
	if a.ArenaLen() != top {
		return fmt.Errorf("reuse allocation grew the arena instead of using a freed block: %d -> %d", top, a.ArenaLen())
	}
	return nil
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	runID := uuid.New()

	failures := 0
	for _, s := range scenarios {
		a, err := newAllocator()
		if err != nil {
			log.Error().Str("run", runID.String()).Str("scenario", s.name).Err(err).Msg("setup failed")
			failures++
			continue
		}
		if err := s.run(a); err != nil {
			log.Error().Str("run", runID.String()).Str("scenario", s.name).Err(err).Msg("scenario failed")
			failures++
			continue
		}
		log.Info().Str("run", runID.String()).Str("scenario", s.name).Msg("scenario passed")
	}

	log.Info().Str("run", runID.String()).Int("total", len(scenarios)).Int("failed", failures).Msg("run complete")
	if failures > 0 {
		os.Exit(1)
	}
}
