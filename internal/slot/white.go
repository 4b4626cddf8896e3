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

// White is one single-color PWM output slot (spec §4.4). Default
// brightness is zero at construction — "outputs are dark until the first
// command" — unlike WS/RGB slots whose Configure latches the default
// effect's initial (black) color but leaves brightness at its zero value
// too; White spells this out explicitly because it's the one place the
// spec calls it out as a notable default rather than an implied one.
type White struct {
	mu sync.Mutex

	Index      int
	Channel    int
	Enabled    bool
	effectName string
	eff        effect.WhiteEffect
	brightness uint8 // zero value: dark until first command, spec §4.4
	params     effect.Params
	gammaTable *gamma.Table
	frameRate  float64

	lastDuty physic.Duty
}

func NewWhite(index int) *White { return &White{Index: index} }

func (s *White) Configure(enabled bool, frameRateHz float64) {
	s.Enabled = enabled
	s.frameRate = frameRateHz
	s.gammaTable = gamma.NewTable(uint16(physic.DutyMax))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eff, _ = effect.White.New(effect.White.Default())
	s.initEffect(s.eff)
	s.effectName = effect.White.Default()
}

func (s *White) initEffect(e effect.WhiteEffect) {
	e.Init()
	if ra, ok := e.(effect.RateAware); ok {
		ra.SetFrameRate(s.frameRate)
	}
}

func (s *White) Apply(effectName string, brightness uint8, params effect.Params) bool {
	newEff, ok := effect.White.New(effectName)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initEffect(newEff)
	newEff.ApplyParams(params)
	s.eff = newEff
	s.effectName = effectName
	s.brightness = brightness
	s.params = params
	return true
}

func (s *White) SetBrightness(b uint8) {
	s.mu.Lock()
	s.brightness = b
	s.mu.Unlock()
}

func (s *White) IsEnabled() bool { return s.Enabled }

func (s *White) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

func (s *White) RenderTick(frameIdx uint64) physic.Duty {
	if !s.mu.TryLock() {
		return s.lastDuty
	}
	defer s.mu.Unlock()
	if s.eff == nil {
		return s.lastDuty
	}
	level := s.eff.Render(frameIdx)
	duty := physic.Duty(gamma.Scale(s.gammaTable.Apply(level), s.brightness))
	s.lastDuty = duty
	return duty
}

type WhiteSnapshot struct {
	Index      int
	Channel    int
	Enabled    bool
	Effect     string
	Brightness uint8
	Params     effect.Params
}

func (s *White) Snapshot() WhiteSnapshot {
	return WhiteSnapshot{
		Index:      s.Index,
		Channel:    s.Channel,
		Enabled:    s.Enabled,
		Effect:     s.effectName,
		Brightness: s.brightness,
		Params:     s.params,
	}
}
