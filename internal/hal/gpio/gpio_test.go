// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import "testing"

func TestSimDriverSetStatesRejectsWrongChannelCount(t *testing.T) {
	d := NewSimDriver(3)
	if err := d.SetStates([]bool{true, false}); err == nil {
		t.Fatal("expected SetStates to reject a mismatched channel count")
	}
}

func TestSimDriverSetStatesRecordsValues(t *testing.T) {
	d := NewSimDriver(2)
	if err := d.SetStates([]bool{true, false}); err != nil {
		t.Fatalf("SetStates: %v", err)
	}
	got := d.Last()
	if !got[0] || got[1] {
		t.Fatalf("Last() = %v, want [true false]", got)
	}
}

func TestSimDriverHaltClearsAllChannels(t *testing.T) {
	d := NewSimDriver(2)
	d.SetStates([]bool{true, true})
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	for _, v := range d.Last() {
		if v {
			t.Fatal("expected Halt to clear all channels")
		}
	}
}
