// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package physic defines the small set of physical units the rendering
// engines and hardware drivers reason about: frequency (frame/PWM rates)
// and duty cycle (PWM output level).
//
// It is a deliberately narrow adaptation of periph.io/x/periph/conn/physic:
// that package models distance, mass, pressure, and a full SI-prefixed
// string parser for a general-purpose peripheral library. A lighting node
// only ever needs a frame rate and a PWM carrier frequency, so this package
// keeps the typed-unit shape (a named integer type with a String method)
// and drops everything else.
package physic

import "fmt"

// Frequency is expressed in milli-Hertz to keep sub-Hertz frame rates
// (e.g. a 0.5 Hz status heartbeat) representable as an integer, exactly as
// periph.io/x/periph/conn/physic represents its smallest unit as an integer
// count rather than a float.
type Frequency int64

const (
	MilliHertz Frequency = 1
	Hertz                = 1000 * MilliHertz
	KiloHertz            = 1000 * Hertz
)

func (f Frequency) String() string {
	if f%Hertz == 0 {
		return fmt.Sprintf("%dHz", int64(f/Hertz))
	}
	return fmt.Sprintf("%d.%03dHz", int64(f/Hertz), int64(f%Hertz))
}

// Period returns the duration of one cycle at this frequency.
func (f Frequency) Period() (Nanoseconds int64) {
	if f <= 0 {
		return 0
	}
	return int64(1e9) * int64(Hertz) / int64(f)
}

// Duty is a 12-bit PWM duty cycle, 0 (off) through DutyMax (full on),
// matching the 12-bit resolution of the analog RGB and white PWM engines
// (§4.3/§4.4 of the node specification).
type Duty uint16

const DutyMax Duty = 4095

// FromFraction maps a 0..255 brightness level onto the 0..DutyMax range.
func FromFraction(level uint8) Duty {
	return Duty((uint32(level) * uint32(DutyMax)) / 255)
}
