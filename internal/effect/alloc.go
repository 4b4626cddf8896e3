// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

// Allocator models the external (PSRAM-class) memory pool large effects
// prefer, per spec §4.1: "Large-memory effects (e.g., fluid simulations)
// request external memory from the allocator and degrade to internal
// memory if unavailable."
type Allocator interface {
	// AllocExternal attempts to reserve n bytes of external memory. ok is
	// false if none is available; the caller must then fall back to a
	// regular heap allocation.
	AllocExternal(n int) (buf []byte, ok bool)
}

// MemoryAllocator is the process-wide external memory pool, a singleton
// per spec §3's lifecycle rules. The embedder may install a real
// PSRAM-backed allocator; the default always reports unavailable, which is
// the correct simulation behavior for a target with no external RAM
// configured.
var MemoryAllocator Allocator = noExternalMemory{}

type noExternalMemory struct{}

func (noExternalMemory) AllocExternal(int) ([]byte, bool) { return nil, false }

// alloc requests n bytes from MemoryAllocator, falling back to an internal
// heap allocation on failure. Every large-memory effect goes through this
// single helper so the degrade path is exercised uniformly.
func alloc(n int) []byte {
	if buf, ok := MemoryAllocator.AllocExternal(n); ok {
		return buf
	}
	return make([]byte, n)
}
