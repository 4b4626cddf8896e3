// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gamma implements the perceptual brightness correction applied by
// every rendering engine before a color or duty cycle is committed to
// hardware (spec §4.2-§4.4: "applies optional gamma correction
// channel-wise, then a linear brightness scale").
//
// The curve is adapted from periph.io/x/periph/devices/apa102's ramp(): a
// linear section near black (so black stays exactly black and very low
// intensities aren't crushed to nothing) followed by a cubic section that
// maps the perceptually-linear input range onto the much larger output
// range a 12-bit PWM channel or a gamma-corrected LED offers.
package gamma

// Table is a precomputed 0..255 -> 0..max gamma curve. Effects render
// perceptually-linear 8-bit channel values; engines look them up here
// before scaling by brightness and writing to hardware.
type Table struct {
	max  uint16
	ramp [256]uint16
}

// NewTable builds a gamma table topping out at max (inclusive).
func NewTable(max uint16) *Table {
	t := &Table{max: max}
	for i := range t.ramp {
		t.ramp[i] = ramp(uint8(i), max)
	}
	return t
}

// Apply looks up the gamma-corrected value for an 8-bit input level.
func (t *Table) Apply(level uint8) uint16 {
	if t == nil {
		return uint16(level)
	}
	return t.ramp[level]
}

// ramp converts an 8-bit perceptual intensity to an output value on
// [0, max], reproducing apa102.ramp(): linear for the bottom 1% of the
// range (so black is exactly black and the low end doesn't posterize),
// cubic above that.
func ramp(level uint8, max uint16) uint16 {
	if level == 0 {
		return 0
	}
	linearCutOff := uint32((uint32(max) + 50) / 100)
	l := uint32(level)
	if l < linearCutOff {
		return uint16(l)
	}
	l -= linearCutOff
	inRange := 255 - linearCutOff
	outRange := uint32(max) - linearCutOff
	offset := inRange >> 1
	y := (l*l*l + offset) / inRange
	return uint16((y*outRange+offset*offset)/inRange/inRange + linearCutOff)
}

// Scale applies an 8-bit brightness level (0..255) on top of an
// already-gamma-corrected value, rounding to nearest.
func Scale(v uint16, brightness uint8) uint16 {
	return uint16((uint32(v)*uint32(brightness) + 127) / 255)
}
