// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package strip

import "testing"

func TestSimDriverCommitRejectsWrongSize(t *testing.T) {
	d := NewSimDriver(4)
	if err := d.Commit(make([]byte, 3)); err == nil {
		t.Fatal("expected Commit to reject a mis-sized buffer")
	}
}

func TestSimDriverCommitRecordsLastFrame(t *testing.T) {
	d := NewSimDriver(2)
	frame := []byte{1, 2, 3, 4, 5, 6}
	if err := d.Commit(frame); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got := d.Last()
	for i, b := range frame {
		if got[i] != b {
			t.Fatalf("Last()[%d] = %d, want %d", i, got[i], b)
		}
	}
	if d.Commits() != 1 {
		t.Fatalf("Commits() = %d, want 1", d.Commits())
	}
}

func TestSimDriverHaltZeroesLastFrame(t *testing.T) {
	d := NewSimDriver(1)
	d.Commit([]byte{9, 9, 9})
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	for _, b := range d.Last() {
		if b != 0 {
			t.Fatal("expected Halt to zero the last frame")
		}
	}
}

func TestSimDriverLastReturnsACopy(t *testing.T) {
	d := NewSimDriver(1)
	d.Commit([]byte{1, 2, 3})
	got := d.Last()
	got[0] = 255
	if d.Last()[0] == 255 {
		t.Fatal("Last() must return a defensive copy, not the internal buffer")
	}
}
