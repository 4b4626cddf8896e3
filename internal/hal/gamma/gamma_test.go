// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gamma

import "testing"

func TestTableZeroStaysZero(t *testing.T) {
	table := NewTable(4095)
	if got := table.Apply(0); got != 0 {
		t.Fatalf("Apply(0) = %d, want 0", got)
	}
}

func TestTableMaxLevelReachesMax(t *testing.T) {
	table := NewTable(255)
	if got := table.Apply(255); got != 255 {
		t.Fatalf("Apply(255) = %d, want 255 (table tops out at max)", got)
	}
}

func TestTableIsMonotonicallyNonDecreasing(t *testing.T) {
	table := NewTable(4095)
	prev := uint16(0)
	for i := 0; i < 256; i++ {
		v := table.Apply(uint8(i))
		if v < prev {
			t.Fatalf("gamma table not monotonic at level %d: %d < %d", i, v, prev)
		}
		prev = v
	}
}

func TestTableNilIsIdentity(t *testing.T) {
	var table *Table
	if got := table.Apply(77); got != 77 {
		t.Fatalf("nil table Apply(77) = %d, want 77 (identity passthrough)", got)
	}
}

func TestScaleFullBrightnessIsIdentity(t *testing.T) {
	if got := Scale(1000, 255); got != 1000 {
		t.Fatalf("Scale(1000, 255) = %d, want 1000", got)
	}
}

func TestScaleZeroBrightnessIsZero(t *testing.T) {
	if got := Scale(1000, 0); got != 0 {
		t.Fatalf("Scale(1000, 0) = %d, want 0", got)
	}
}

func TestScaleHalfBrightness(t *testing.T) {
	got := Scale(255, 128)
	if got < 127 || got > 129 {
		t.Fatalf("Scale(255, 128) = %d, want approximately 128", got)
	}
}
