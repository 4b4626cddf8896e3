// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package slot

import (
	"sync"

	"github.com/evm100/ultranode/internal/effect"
	"github.com/evm100/ultranode/internal/hal/gamma"
	"github.com/evm100/ultranode/internal/hal/physic"
)

// RGB is one analog-RGB output slot (spec §4.3): three PWM channels driven
// from a single effect producing an (R,G,B) triple per tick.
type RGB struct {
	mu sync.Mutex

	Index   int
	Enabled bool

	effectName string
	eff        effect.RGBEffect
	brightness uint8
	params     effect.Params
	gammaTable *gamma.Table

	lastColor effect.Color
	lastDuty  [3]physic.Duty
}

func NewRGB(index int) *RGB { return &RGB{Index: index} }

func (s *RGB) Configure(enabled bool, gammaMax uint16) {
	s.Enabled = enabled
	s.gammaTable = gamma.NewTable(gammaMax)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eff, _ = effect.RGB.New(effect.RGB.Default())
	s.eff.Init()
	s.effectName = effect.RGB.Default()
}

func (s *RGB) Apply(effectName string, brightness uint8, params effect.Params) bool {
	newEff, ok := effect.RGB.New(effectName)
	if !ok {
		return false
	}
	newEff.Init()
	newEff.ApplyParams(params)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.eff = newEff
	s.effectName = effectName
	s.brightness = brightness
	s.params = params
	return true
}

func (s *RGB) SetBrightness(b uint8) {
	s.mu.Lock()
	s.brightness = b
	s.mu.Unlock()
}

func (s *RGB) IsEnabled() bool { return s.Enabled }

func (s *RGB) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// RenderTick evaluates the effect for frameIdx and returns the three
// 12-bit duty values to write within a single tick (spec §4.3's ordering
// guarantee). On lock contention it returns the previous tick's duties.
func (s *RGB) RenderTick(frameIdx uint64) [3]physic.Duty {
	if !s.mu.TryLock() {
		return s.lastDuty
	}
	defer s.mu.Unlock()
	if s.eff == nil {
		return s.lastDuty
	}
	r, g, b := s.eff.Render(frameIdx)
	bri := s.brightness
	// gammaTable is built to top out at physic.DutyMax, so Apply already
	// yields a value in the 12-bit duty range; Scale then applies
	// brightness as a fraction of that same range.
	duty := [3]physic.Duty{
		physic.Duty(gamma.Scale(s.gammaTable.Apply(r), bri)),
		physic.Duty(gamma.Scale(s.gammaTable.Apply(g), bri)),
		physic.Duty(gamma.Scale(s.gammaTable.Apply(b), bri)),
	}
	s.lastDuty = duty
	s.lastColor = effect.Color{R: r, G: g, B: b}
	return duty
}

type RGBSnapshot struct {
	Index      int
	Enabled    bool
	Effect     string
	Brightness uint8
	Params     effect.Params
	Color      [3]uint8
}

func (s *RGB) Snapshot() RGBSnapshot {
	return RGBSnapshot{
		Index:      s.Index,
		Enabled:    s.Enabled,
		Effect:     s.effectName,
		Brightness: s.brightness,
		Params:     s.params,
		Color:      [3]uint8{s.lastColor.R, s.lastColor.G, s.lastColor.B},
	}
}
