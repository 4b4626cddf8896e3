// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

import "math"

// WSEffect is the addressable-strip effect contract (spec §4.1/§4.2).
// Render fills out (len(out) == 3*numPixels, R,G,B per pixel) for the
// given absolute frame index; it must complete within one frame budget and
// never allocate on the hot path beyond what Init() already reserved.
type WSEffect interface {
	Init()
	Render(frameIdx uint64, numPixels int, out []byte)
	ApplyParams(p Params)
}

// WS is the addressable-strip class registry. "solid" is first and is
// therefore the default initial effect for every WS slot.
var WS = NewRegistry[WSEffect](
	Descriptor[WSEffect]{Name: "solid", New: func() WSEffect { return &wsSolid{} }},
	Descriptor[WSEffect]{Name: "rainbow", New: func() WSEffect { return &wsRainbow{} }},
	Descriptor[WSEffect]{Name: "fluid", New: func() WSEffect { return &wsFluid{} }},
)

// wsSolid is the generic solid-color fast path (spec §4.2): it simply
// broadcasts the slot's latched color to every pixel.
type wsSolid struct {
	c Color
}

func (e *wsSolid) Init() { e.c = Color{} }

func (e *wsSolid) ApplyParams(p Params) {
	if c, ok := ParseColor(p, e.c); ok {
		e.c = c
	}
}

func (e *wsSolid) Render(_ uint64, numPixels int, out []byte) {
	for i := 0; i < numPixels; i++ {
		out[3*i] = e.c.R
		out[3*i+1] = e.c.G
		out[3*i+2] = e.c.B
	}
}

// wsRainbow sweeps a hue gradient down the strip, params: [speed
// (hue-steps/frame, default 1), width (hue-degrees per pixel, default 8)].
type wsRainbow struct {
	speed float64
	width float64
}

func (e *wsRainbow) Init() {
	e.speed = 1
	e.width = 8
}

func (e *wsRainbow) ApplyParams(p Params) {
	e.speed = p.Float(0, e.speed)
	e.width = p.Float(1, e.width)
}

func (e *wsRainbow) Render(frameIdx uint64, numPixels int, out []byte) {
	base := math.Mod(float64(frameIdx)*e.speed, 360)
	for i := 0; i < numPixels; i++ {
		hue := math.Mod(base+float64(i)*e.width, 360)
		r, g, b := hsvToRGB(hue, 1, 1)
		out[3*i] = r
		out[3*i+1] = g
		out[3*i+2] = b
	}
}

// wsFluid is a large-memory effect: a coupled-cell diffusion simulation
// seeded with heat and advected down the strip, modeled after the
// PSRAM-backed fluid/fire simulations spec §4.1 calls out by name. Each
// cell is one byte of simulated "heat", independent of pixel count, which
// is what makes the buffer a real external-memory candidate rather than
// something that trivially fits on-chip.
type wsFluid struct {
	cells    []byte // heat field, alloc'd via the package Allocator
	cooling  float64
	sparking float64
}

const fluidCells = 256

func (e *wsFluid) Init() {
	e.cells = alloc(fluidCells)
	e.cooling = 55
	e.sparking = 120
}

func (e *wsFluid) ApplyParams(p Params) {
	e.cooling = clampF(p.Float(0, e.cooling), 0, 255)
	e.sparking = clampF(p.Float(1, e.sparking), 0, 255)
}

func (e *wsFluid) Render(frameIdx uint64, numPixels int, out []byte) {
	if len(e.cells) == 0 {
		e.cells = alloc(fluidCells)
	}
	n := len(e.cells)
	rng := splitmix(frameIdx)
	// Cool every cell a random amount.
	for i := 0; i < n; i++ {
		rng = splitmix(rng)
		cooldown := byte(rng % uint64(e.cooling/2+2))
		if e.cells[i] < cooldown {
			e.cells[i] = 0
		} else {
			e.cells[i] -= cooldown
		}
	}
	// Heat diffuses upward.
	for i := n - 1; i >= 2; i-- {
		e.cells[i] = byte((uint16(e.cells[i-1]) + uint16(e.cells[i-2]) + uint16(e.cells[i-2])) / 3)
	}
	// Randomly ignite new sparks near the base.
	rng = splitmix(rng)
	if float64(rng%255) < e.sparking {
		rng = splitmix(rng)
		idx := int(rng % 7)
		spark := 160 + byte(rng%95)
		if e.cells[idx]+spark > e.cells[idx] {
			e.cells[idx] += spark
		} else {
			e.cells[idx] = 255
		}
	}
	for i := 0; i < numPixels; i++ {
		heat := e.cells[i%n]
		r, g, b := heatToRGB(heat)
		out[3*i] = r
		out[3*i+1] = g
		out[3*i+2] = b
	}
}

func heatToRGB(heat byte) (r, g, b uint8) {
	t := float64(heat) / 255
	switch {
	case t < 1.0/3:
		return uint8(255 * (t * 3)), 0, 0
	case t < 2.0/3:
		return 255, uint8(255 * ((t - 1.0/3) * 3)), 0
	default:
		return 255, 255, uint8(255 * ((t - 2.0/3) * 3))
	}
}

func splitmix(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}
