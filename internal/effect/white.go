// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

// WhiteEffect is the single-channel effect contract (spec §4.4): Render
// produces a scalar 0..255 brightness for the given frame index; the
// engine then applies gamma and the slot's brightness scale on top.
type WhiteEffect interface {
	Init()
	Render(frameIdx uint64) uint8
	ApplyParams(p Params)
}

// RateAware is an optional interface an effect may implement when its
// render output depends on wall-clock timing rather than frame count alone
// (e.g. "walk every integer brightness across a fixed duration" regardless
// of the engine's configured tick rate). The white slot calls SetFrameRate
// after Init, before the first Render; the relay slot never calls it, so a
// rate-aware relay effect keeps its 60 Hz default.
type RateAware interface {
	SetFrameRate(hz float64)
}

// White is the white-PWM class registry.
var White = NewRegistry[WhiteEffect](
	Descriptor[WhiteEffect]{Name: "solid", New: func() WhiteEffect { return &whiteSolid{} }},
	Descriptor[WhiteEffect]{Name: "swell", New: func() WhiteEffect { return &whiteSwell{} }},
	Descriptor[WhiteEffect]{Name: "blink", New: func() WhiteEffect { return &whiteBlink{} }},
)

// whiteSolid emits a constant level, params: [level (default 255)].
type whiteSolid struct {
	level uint8
}

func (e *whiteSolid) Init() { e.level = 255 }

func (e *whiteSolid) ApplyParams(p Params) { e.level = p.Byte(0, e.level) }

func (e *whiteSolid) Render(uint64) uint8 { return e.level }

// whiteSwell walks every integer brightness from 0 to 255 over
// duration_ms (default 2000ms), then repeats, per spec §4.4: "must walk
// every integer brightness from 0 to 255 across its duration —
// implementations compute the ramp in enough frames to avoid step
// skipping." When duration_ms at the frame rate gives fewer than
// minSwellSteps frames, the ramp is stretched to minSwellSteps frames and
// so lasts longer than duration_ms.
type whiteSwell struct {
	durationMs float64
	rateHz     float64
	steps      int
}

const minSwellSteps = 256 // guarantees a per-frame delta <= 1, hitting every integer.

func (e *whiteSwell) Init() {
	e.durationMs = 2000
	e.rateHz = 60
	e.recompute()
}

func (e *whiteSwell) SetFrameRate(hz float64) {
	if hz > 0 {
		e.rateHz = hz
	}
	e.recompute()
}

func (e *whiteSwell) ApplyParams(p Params) {
	e.durationMs = p.Float(0, e.durationMs)
	if e.durationMs < 1 {
		e.durationMs = 1
	}
	e.recompute()
}

func (e *whiteSwell) recompute() {
	steps := int((e.durationMs / 1000) * e.rateHz)
	if steps < minSwellSteps {
		steps = minSwellSteps
	}
	e.steps = steps
}

func (e *whiteSwell) Render(frameIdx uint64) uint8 {
	if e.steps <= 1 {
		return 0
	}
	pos := int(frameIdx % uint64(e.steps))
	return uint8((pos * 255) / (e.steps - 1))
}

// whiteBlink alternates on/off. params: [on_ms (default 500), off_ms
// (default 500), level (default 255)].
type whiteBlink struct {
	onMs, offMs float64
	level       uint8
	rateHz      float64
}

func (e *whiteBlink) Init() {
	e.onMs, e.offMs = 500, 500
	e.level = 255
	e.rateHz = 60
}

func (e *whiteBlink) SetFrameRate(hz float64) {
	if hz > 0 {
		e.rateHz = hz
	}
}

func (e *whiteBlink) ApplyParams(p Params) {
	e.onMs = p.Float(0, e.onMs)
	e.offMs = p.Float(1, e.offMs)
	e.level = p.Byte(2, e.level)
}

func (e *whiteBlink) Render(frameIdx uint64) uint8 {
	onFrames := uint64(e.onMs / 1000 * e.rateHz)
	offFrames := uint64(e.offMs / 1000 * e.rateHz)
	period := onFrames + offFrames
	if period == 0 {
		return 0
	}
	if frameIdx%period < onFrames {
		return e.level
	}
	return 0
}
