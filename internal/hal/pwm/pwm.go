// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pwm defines the driver interface for 12-bit duty-cycle outputs
// (analog RGB channels and white channels, spec §4.3/§4.4) and a software
// simulation backend.
//
// Adapted from periph.io/x/periph's experimental/devices/pca9685: a
// multi-channel PWM expander addressed by channel index, each channel
// taking a 12-bit duty value. pca9685's I2C register protocol (mode1/mode2,
// prescale, per-channel on/off registers) is replaced by a plain channel
// array — the node's build-time config decides which GPIO/LEDC channel a
// given index maps to, which is exactly the "driver particulars" spec §1
// puts out of scope.
package pwm

import (
	"fmt"

	"github.com/evm100/ultranode/internal/hal/physic"
)

// Driver writes 12-bit duty values to one or more PWM channels sharing a
// single hardware timer (spec §5: "LEDC timer 0 is shared across PWM
// channels").
type Driver interface {
	// NumChannels is the number of independently addressable channels.
	NumChannels() int
	// SetDuties writes one duty value per channel, index-aligned. All
	// channels belonging to the same strip must be updated in the same
	// call so they land within one tick (spec §4.3's ordering guarantee).
	SetDuties(duties []physic.Duty) error
	// Halt drives every channel to zero duty.
	Halt() error
}

// SimDriver is the default software backend: no physical LEDC/I2C
// transport is wired up, matching this repo's scope (hardware driver
// particulars are an external collaborator, spec §1).
type SimDriver struct {
	last []physic.Duty
}

// NewSimDriver returns a PWM simulator with the given channel count.
func NewSimDriver(numChannels int) *SimDriver {
	return &SimDriver{last: make([]physic.Duty, numChannels)}
}

func (s *SimDriver) NumChannels() int { return len(s.last) }

func (s *SimDriver) SetDuties(duties []physic.Duty) error {
	if len(duties) != len(s.last) {
		return fmt.Errorf("pwm: set duties: expected %d channels, got %d", len(s.last), len(duties))
	}
	copy(s.last, duties)
	return nil
}

func (s *SimDriver) Halt() error {
	for i := range s.last {
		s.last[i] = 0
	}
	return nil
}

// Last returns the most recently written duty values.
func (s *SimDriver) Last() []physic.Duty {
	out := make([]physic.Duty, len(s.last))
	copy(out, s.last)
	return out
}
