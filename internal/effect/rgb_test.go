// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

import "testing"

func TestRGBSolidRendersLatchedColor(t *testing.T) {
	e := &rgbSolid{}
	e.Init()
	e.ApplyParams(Params{10.0, 20.0, 30.0})
	r, g, b := e.Render(0)
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("Render() = (%d %d %d), want (10 20 30)", r, g, b)
	}
}

func TestRGBBreathePeriodClampsToAtLeastOne(t *testing.T) {
	e := &rgbBreathe{}
	e.Init()
	e.ApplyParams(Params{0.0})
	if e.period != 1 {
		t.Fatalf("period = %v, want clamped to 1", e.period)
	}
}

func TestRGBBreatheEnvelopeDimsBelowFullColor(t *testing.T) {
	e := &rgbBreathe{}
	e.Init()
	e.ApplyParams(Params{255.0, 255.0, 255.0, 100.0})
	r, g, b := e.Render(0) // phase 0: sin(-pi/2) => envelope 0
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("Render(0) = (%d %d %d), want (0 0 0) at the envelope trough", r, g, b)
	}
}

func TestRGBColorCycleDefaultSpeed(t *testing.T) {
	e := &rgbColorCycle{}
	e.Init()
	if e.speed != 2 {
		t.Fatalf("speed = %v, want 2", e.speed)
	}
}

func TestRGBColorCycleRendersFullSaturationColor(t *testing.T) {
	e := &rgbColorCycle{}
	e.Init()
	r, g, b := e.Render(0)
	if r != 255 {
		t.Fatalf("Render(0) red channel = %d, want 255 at hue 0", r)
	}
	_ = g
	_ = b
}

func TestScaleChanRounds(t *testing.T) {
	if got := scaleChan(200, 0.5); got != 100 {
		t.Fatalf("scaleChan(200, 0.5) = %d, want 100", got)
	}
	if got := scaleChan(200, 0); got != 0 {
		t.Fatalf("scaleChan(200, 0) = %d, want 0", got)
	}
}
