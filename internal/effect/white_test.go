// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

import "testing"

func TestWhiteSolidDefaultsToFullLevel(t *testing.T) {
	e := &whiteSolid{}
	e.Init()
	if got := e.Render(0); got != 255 {
		t.Fatalf("Render(0) = %d, want 255", got)
	}
}

func TestWhiteSolidAppliesLevelParam(t *testing.T) {
	e := &whiteSolid{}
	e.Init()
	e.ApplyParams(Params{100.0})
	if got := e.Render(0); got != 100 {
		t.Fatalf("Render(0) = %d, want 100", got)
	}
}

func TestWhiteSwellHitsEveryIntegerBrightness(t *testing.T) {
	e := &whiteSwell{}
	e.Init()
	e.SetFrameRate(60)
	seen := make(map[uint8]bool)
	for frame := uint64(0); frame < uint64(e.steps); frame++ {
		seen[e.Render(frame)] = true
	}
	for want := uint8(0); ; want++ {
		if !seen[want] {
			t.Fatalf("brightness %d never hit across one full swell period", want)
		}
		if want == 255 {
			break
		}
	}
}

func TestWhiteSwellStepsNeverBelowMinimum(t *testing.T) {
	e := &whiteSwell{}
	e.Init()
	e.SetFrameRate(1) // a slow rate would otherwise compute too few steps
	e.ApplyParams(Params{10.0})
	if e.steps < minSwellSteps {
		t.Fatalf("steps = %d, want >= %d", e.steps, minSwellSteps)
	}
}

func TestWhiteBlinkAlternatesOnOff(t *testing.T) {
	e := &whiteBlink{}
	e.Init()
	e.SetFrameRate(60)
	e.ApplyParams(Params{100.0, 100.0, 255.0}) // 6 frames on, 6 frames off at 60Hz
	if got := e.Render(0); got != 255 {
		t.Fatalf("Render(0) = %d, want 255 (on phase)", got)
	}
	if got := e.Render(10); got != 0 {
		t.Fatalf("Render(10) = %d, want 0 (off phase)", got)
	}
}

func TestWhiteBlinkZeroPeriodRendersOff(t *testing.T) {
	e := &whiteBlink{}
	e.Init()
	e.SetFrameRate(60)
	e.ApplyParams(Params{0.0, 0.0, 255.0})
	if got := e.Render(0); got != 0 {
		t.Fatalf("Render(0) = %d, want 0 when on/off period is zero", got)
	}
}
