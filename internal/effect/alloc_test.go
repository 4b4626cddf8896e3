// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

import "testing"

type fakeExternalAllocator struct {
	ok bool
}

func (f fakeExternalAllocator) AllocExternal(n int) ([]byte, bool) {
	if !f.ok {
		return nil, false
	}
	return make([]byte, n), true
}

func TestAllocFallsBackToHeapWhenExternalUnavailable(t *testing.T) {
	prev := MemoryAllocator
	defer func() { MemoryAllocator = prev }()
	MemoryAllocator = fakeExternalAllocator{ok: false}

	buf := alloc(16)
	if len(buf) != 16 {
		t.Fatalf("len(buf) = %d, want 16", len(buf))
	}
}

func TestAllocUsesExternalMemoryWhenAvailable(t *testing.T) {
	prev := MemoryAllocator
	defer func() { MemoryAllocator = prev }()
	MemoryAllocator = fakeExternalAllocator{ok: true}

	buf := alloc(32)
	if len(buf) != 32 {
		t.Fatalf("len(buf) = %d, want 32", len(buf))
	}
}

func TestNoExternalMemoryDefaultAlwaysFails(t *testing.T) {
	_, ok := noExternalMemory{}.AllocExternal(10)
	if ok {
		t.Fatal("expected the default allocator to report unavailable")
	}
}
