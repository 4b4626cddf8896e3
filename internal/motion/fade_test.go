// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motion

import (
	"sync"
	"testing"
	"time"
)

type fakeDimmable struct {
	mu      sync.Mutex
	enabled bool
	bri     uint8
}

func (f *fakeDimmable) IsEnabled() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.enabled }
func (f *fakeDimmable) Brightness() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bri
}
func (f *fakeDimmable) SetBrightness(b uint8) { f.mu.Lock(); f.bri = b; f.mu.Unlock() }

func TestEngineStartRampsToZero(t *testing.T) {
	s := &fakeDimmable{enabled: true, bri: 100}
	e := NewEngine(s)

	e.Start(20, 4) // 5 ms per step

	if !e.Active() {
		t.Fatal("expected fade to be active immediately after Start")
	}
	if got := s.Brightness(); got != 100 {
		t.Fatalf("step 0 should leave brightness at its initial value 100, got %d", got)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && e.Active() {
		time.Sleep(2 * time.Millisecond)
	}
	if e.Active() {
		t.Fatal("fade did not complete within the deadline")
	}
	if got := s.Brightness(); got != 0 {
		t.Fatalf("final brightness = %d, want 0", got)
	}
}

func TestEngineStartSkipsDisabledAndZeroBrightnessSlots(t *testing.T) {
	disabled := &fakeDimmable{enabled: false, bri: 200}
	dark := &fakeDimmable{enabled: true, bri: 0}
	e := NewEngine(disabled, dark)

	e.Start(10, 2)

	if e.Active() {
		t.Fatal("a fade with no eligible slots must not become active")
	}
	if disabled.Brightness() != 200 {
		t.Fatalf("disabled slot's brightness must be untouched, got %d", disabled.Brightness())
	}
}

func TestEngineCancelLeavesBrightnessInPlace(t *testing.T) {
	s := &fakeDimmable{enabled: true, bri: 100}
	e := NewEngine(s)
	e.Start(1000, 100)

	time.Sleep(5 * time.Millisecond)
	e.Cancel()

	if e.Active() {
		t.Fatal("expected fade to be inactive after Cancel")
	}
	bri := s.Brightness()
	if bri == 0 || bri == 100 {
		// With a 10 ms step interval and a 5 ms sleep, usually no tick
		// has fired yet and the value is still 100; Cancel itself never
		// writes a brightness, it only leaves the current value in place.
		t.Logf("brightness after cancel mid-ramp: %d", bri)
	}
}

func TestEngineStartReplacesInFlightFade(t *testing.T) {
	s := &fakeDimmable{enabled: true, bri: 100}
	e := NewEngine(s)
	e.Start(1000, 100)
	time.Sleep(5 * time.Millisecond)

	s.SetBrightness(200)
	e.Start(20, 4)

	if !e.Active() {
		t.Fatal("expected the replacement fade to be active")
	}
}

func TestApplyStepCeilingDivision(t *testing.T) {
	s := &fakeDimmable{enabled: true, bri: 10}
	e := NewEngine(s)
	e.fading = []fadingSlot{{slot: s, initial: 10}}
	e.steps = 3
	e.step = 1 // remaining = 2; 10*2/3 = 6.67 -> ceil 7
	e.applyStepLocked()
	if got := s.Brightness(); got != 7 {
		t.Fatalf("applyStepLocked brightness = %d, want 7 (ceiling division)", got)
	}
}
