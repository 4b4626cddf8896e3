// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package slot

import (
	"sync"

	"github.com/evm100/ultranode/internal/effect"
)

// Relay is the optional fourth output class (spec §9 Open Question,
// resolved in SPEC_FULL.md §C.2): identical shape to White but digital
// only, no PWM duty or gamma curve — just on/off.
type Relay struct {
	mu sync.Mutex

	Index      int
	Enabled    bool
	effectName string
	eff        effect.WhiteEffect
	params     effect.Params

	lastOn bool
}

func NewRelay(index int) *Relay { return &Relay{Index: index} }

func (s *Relay) Configure(enabled bool) {
	s.Enabled = enabled
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eff, _ = effect.Relay.New(effect.Relay.Default())
	s.eff.Init()
	s.effectName = effect.Relay.Default()
}

func (s *Relay) Apply(effectName string, params effect.Params) bool {
	newEff, ok := effect.Relay.New(effectName)
	if !ok {
		return false
	}
	newEff.Init()
	newEff.ApplyParams(params)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.eff = newEff
	s.effectName = effectName
	s.params = params
	return true
}

func (s *Relay) RenderTick(frameIdx uint64) bool {
	if !s.mu.TryLock() {
		return s.lastOn
	}
	defer s.mu.Unlock()
	if s.eff == nil {
		return s.lastOn
	}
	s.lastOn = s.eff.Render(frameIdx) >= 128
	return s.lastOn
}

type RelaySnapshot struct {
	Index   int
	Enabled bool
	Effect  string
	Params  effect.Params
}

func (s *Relay) Snapshot() RelaySnapshot {
	return RelaySnapshot{Index: s.Index, Enabled: s.Enabled, Effect: s.effectName, Params: s.params}
}
