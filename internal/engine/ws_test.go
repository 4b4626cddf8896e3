// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/evm100/ultranode/internal/hal/strip"
	"github.com/evm100/ultranode/internal/slot"
)

func TestPeriodForDefaultsWhenNonPositive(t *testing.T) {
	if got := periodFor(0); got != time.Second/60 {
		t.Fatalf("periodFor(0) = %v, want %v", got, time.Second/60)
	}
	if got := periodFor(-5); got != time.Second/60 {
		t.Fatalf("periodFor(-5) = %v, want %v", got, time.Second/60)
	}
}

func TestPeriodForClampsToOneMillisecond(t *testing.T) {
	if got := periodFor(100000); got != time.Millisecond {
		t.Fatalf("periodFor(100000) = %v, want clamped to 1ms", got)
	}
}

func TestWSEngineCommitsEnabledStripsOnly(t *testing.T) {
	enabled := slot.NewWS(0, 4)
	enabled.Configure(true, 255)
	enabled.Apply("solid", 255, nil)

	disabled := slot.NewWS(1, 4)

	d0 := strip.NewSimDriver(4)
	d1 := strip.NewSimDriver(4)

	e := &WS{
		Slots:   [2]*slot.WS{enabled, disabled},
		Drivers: [2]strip.Driver{d0, d1},
		RateHz:  500,
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForCommits(t, d0, 1)
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if d1.Commits() != 0 {
		t.Fatalf("disabled strip driver got %d commits, want 0", d1.Commits())
	}
}

func TestWSEngineStopHaltsDrivers(t *testing.T) {
	s := slot.NewWS(0, 2)
	s.Configure(true, 255)
	s.Apply("solid", 255, nil)
	d := strip.NewSimDriver(2)

	e := &WS{
		Slots:   [2]*slot.WS{s, nil},
		Drivers: [2]strip.Driver{d, nil},
		RateHz:  500,
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForCommits(t, d, 1)
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, b := range d.Last() {
		if b != 0 {
			t.Fatal("expected Halt to zero the last committed frame")
		}
	}
}

func waitForCommits(t *testing.T, d *strip.SimDriver, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.Commits() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d commits, got %d", n, d.Commits())
}
