// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

import "math"

// RGBEffect is the analog-RGB-channel effect contract (spec §4.3): Render
// produces one (R,G,B) triple per tick for a three-PWM-channel strip.
type RGBEffect interface {
	Init()
	Render(frameIdx uint64) (r, g, b uint8)
	ApplyParams(p Params)
}

// RGB is the analog-RGB class registry.
var RGB = NewRegistry[RGBEffect](
	Descriptor[RGBEffect]{Name: "solid", New: func() RGBEffect { return &rgbSolid{} }},
	Descriptor[RGBEffect]{Name: "breathe", New: func() RGBEffect { return &rgbBreathe{} }},
	Descriptor[RGBEffect]{Name: "colorcycle", New: func() RGBEffect { return &rgbColorCycle{} }},
)

type rgbSolid struct {
	c Color
}

func (e *rgbSolid) Init() { e.c = Color{} }

func (e *rgbSolid) ApplyParams(p Params) {
	if c, ok := ParseColor(p, e.c); ok {
		e.c = c
	}
}

func (e *rgbSolid) Render(uint64) (uint8, uint8, uint8) { return e.c.R, e.c.G, e.c.B }

// rgbBreathe pulses the latched color through a sinusoidal envelope.
// params: [r,g,b or hex, period_frames (default 120)].
type rgbBreathe struct {
	c      Color
	period float64
}

func (e *rgbBreathe) Init() {
	e.c = Color{}
	e.period = 120
}

func (e *rgbBreathe) ApplyParams(p Params) {
	if c, ok := ParseColor(p, e.c); ok {
		e.c = c
		if _, hex := p[0].(string); hex {
			e.period = p.Float(1, e.period)
		} else {
			e.period = p.Float(3, e.period)
		}
	} else {
		e.period = p.Float(0, e.period)
	}
	if e.period < 1 {
		e.period = 1
	}
}

func (e *rgbBreathe) Render(frameIdx uint64) (uint8, uint8, uint8) {
	phase := math.Mod(float64(frameIdx), e.period) / e.period
	env := (1 + math.Sin(2*math.Pi*phase-math.Pi/2)) / 2
	return scaleChan(e.c.R, env), scaleChan(e.c.G, env), scaleChan(e.c.B, env)
}

func scaleChan(v uint8, env float64) uint8 {
	return uint8(math.Round(float64(v) * env))
}

// rgbColorCycle sweeps through the hue wheel at full saturation/value.
// params: [speed (hue-degrees/frame, default 2)].
type rgbColorCycle struct {
	speed float64
}

func (e *rgbColorCycle) Init() { e.speed = 2 }

func (e *rgbColorCycle) ApplyParams(p Params) { e.speed = p.Float(0, e.speed) }

func (e *rgbColorCycle) Render(frameIdx uint64) (uint8, uint8, uint8) {
	hue := math.Mod(float64(frameIdx)*e.speed, 360)
	return hsvToRGB(hue, 1, 1)
}
