// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio defines a minimal digital-output port, adapted from
// periph.io/x/periph/conn/gpio's PinOut (a single Level-typed Out method).
// periph's gpio.go also defines PinIn, PinIO, pull/edge configuration, and
// a global pin-by-name registry (gpioreg) for real hardware discovery;
// none of that applies here — a relay channel's GPIO mapping is fixed at
// build time (spec §1's non-goal on dynamic channel discovery), so only
// the write side of the interface survives, trimmed to what the relay
// engine actually drives.
package gpio

import "fmt"

// Driver drives one or more digital output channels sharing a bring-up
// lifecycle (the relay class, spec §9 Open Question C.2).
type Driver interface {
	NumChannels() int
	SetStates(on []bool) error
	Halt() error
}

// SimDriver is the default software backend.
type SimDriver struct {
	last []bool
}

func NewSimDriver(numChannels int) *SimDriver {
	return &SimDriver{last: make([]bool, numChannels)}
}

func (s *SimDriver) NumChannels() int { return len(s.last) }

func (s *SimDriver) SetStates(on []bool) error {
	if len(on) != len(s.last) {
		return fmt.Errorf("gpio: set states: expected %d channels, got %d", len(s.last), len(on))
	}
	copy(s.last, on)
	return nil
}

func (s *SimDriver) Halt() error {
	for i := range s.last {
		s.last[i] = false
	}
	return nil
}

func (s *SimDriver) Last() []bool {
	out := make([]bool, len(s.last))
	copy(out, s.last)
	return out
}
