// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/evm100/ultranode/internal/hal/pwm"
	"github.com/evm100/ultranode/internal/slot"
)

func TestRGBEngineWritesDutiesForEnabledSlotsOnly(t *testing.T) {
	enabled := slot.NewRGB(0)
	enabled.Configure(true, 255)
	enabled.Apply("solid", 255, nil)

	disabled := slot.NewRGB(1)

	d0 := pwm.NewSimDriver(3)
	d1 := pwm.NewSimDriver(3)

	e := &RGB{
		Slots:   [4]*slot.RGB{enabled, disabled, nil, nil},
		Drivers: [4]pwm.Driver{d0, d1, nil, nil},
		RateHz:  500,
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForFrame(t, e)
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	any := false
	for _, v := range d0.Last() {
		if v != 0 {
			any = true
		}
	}
	if !any {
		t.Fatal("expected the enabled slot's driver to receive non-zero duties")
	}
}

func waitForFrame(t *testing.T, e interface{ frameCount() uint64 }) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.frameCount() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a rendered frame")
}

func (e *RGB) frameCount() uint64 { return e.frameIdx }
