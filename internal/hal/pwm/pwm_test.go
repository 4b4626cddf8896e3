// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pwm

import (
	"testing"

	"github.com/evm100/ultranode/internal/hal/physic"
)

func TestSimDriverSetDutiesRejectsWrongChannelCount(t *testing.T) {
	d := NewSimDriver(3)
	if err := d.SetDuties([]physic.Duty{1, 2}); err == nil {
		t.Fatal("expected SetDuties to reject a mismatched channel count")
	}
}

func TestSimDriverSetDutiesRecordsValues(t *testing.T) {
	d := NewSimDriver(2)
	if err := d.SetDuties([]physic.Duty{100, 200}); err != nil {
		t.Fatalf("SetDuties: %v", err)
	}
	got := d.Last()
	if got[0] != 100 || got[1] != 200 {
		t.Fatalf("Last() = %v, want [100 200]", got)
	}
}

func TestSimDriverHaltZeroesAllChannels(t *testing.T) {
	d := NewSimDriver(2)
	d.SetDuties([]physic.Duty{100, 200})
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	for _, v := range d.Last() {
		if v != 0 {
			t.Fatal("expected Halt to zero all channels")
		}
	}
}

func TestSimDriverNumChannels(t *testing.T) {
	d := NewSimDriver(5)
	if d.NumChannels() != 5 {
		t.Fatalf("NumChannels() = %d, want 5", d.NumChannels())
	}
}
