// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package slot holds the mutable, process-wide-singleton state for every
// output slot (spec §3: "Output slot. Addressed by (class, index)").
//
// Spec §5 allows render tasks to observe "stale but self-consistent scalar
// fields" without a lock, but requires effect-specific parameter state to
// be updated atomically from the reader's perspective. Design note 9
// resolves the ambiguity this leaves for the *effect instance itself*
// (which is not a single scalar) by having render acquire a short mutex
// "tryingly" and reuse the last frame on contention, rather than block a
// fixed-rate render task behind a command-path mutation. Every slot type
// in this package follows that rule.
package slot

import (
	"sync"

	"github.com/evm100/ultranode/internal/effect"
	"github.com/evm100/ultranode/internal/hal/gamma"
)

// WS is one addressable-strip output slot.
type WS struct {
	mu sync.Mutex

	Index     int
	NumPixels int
	Enabled   bool

	effectName string
	eff        effect.WSEffect
	brightness uint8
	params     effect.Params
	gammaTable *gamma.Table

	lastColor effect.Color
	frameIdx  uint64
	lastFrame []byte // reused verbatim when the render tryLock is contended
}

// NewWS constructs a disabled-by-default slot; Configure enables it.
func NewWS(index, numPixels int) *WS {
	return &WS{Index: index, NumPixels: numPixels, lastFrame: make([]byte, 3*numPixels)}
}

// Configure is called once at startup (spec §3: "enabled (build-time)").
func (s *WS) Configure(enabled bool, gammaMax uint16) {
	s.Enabled = enabled
	s.gammaTable = gamma.NewTable(gammaMax)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eff, _ = effect.WS.New(effect.WS.Default())
	s.eff.Init()
	s.effectName = effect.WS.Default()
}

// Apply latches a new effect/params/brightness onto the slot (spec §4.5
// step 5). Called only from the command-dispatch goroutine. ok is false if
// effectName is unregistered; the slot is left unchanged in that case.
func (s *WS) Apply(effectName string, brightness uint8, params effect.Params) bool {
	newEff, ok := effect.WS.New(effectName)
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

// SetBrightness updates brightness only, used by the motion-fade engine.
func (s *WS) SetBrightness(b uint8) {
	s.mu.Lock()
	s.brightness = b
	s.mu.Unlock()
}

// IsEnabled reports the build-time enabled flag (torn-read-safe scalar).
func (s *WS) IsEnabled() bool { return s.Enabled }

// Brightness reads the latched brightness (torn-read-safe scalar, spec §5).
func (s *WS) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// RenderFrame evaluates the current effect for frameIdx and returns the
// gamma+brightness corrected pixel buffer. On lock contention with the
// command-dispatch goroutine it returns the previous frame unchanged
// (design note 9).
func (s *WS) RenderFrame(frameIdx uint64) []byte {
	if !s.mu.TryLock() {
		return s.lastFrame
	}
	defer s.mu.Unlock()
	if s.eff == nil {
		return s.lastFrame
	}
	raw := make([]byte, 3*s.NumPixels)
	s.eff.Render(frameIdx, s.NumPixels, raw)
	b := s.brightness
	for i := range raw {
		raw[i] = byte(gamma.Scale(s.gammaTable.Apply(raw[i]), b))
	}
	s.lastFrame = raw
	s.frameIdx = frameIdx
	if s.NumPixels > 0 {
		s.lastColor = effect.Color{R: raw[0], G: raw[1], B: raw[2]}
	}
	return raw
}

// Snapshot is the read-only view used by the status builder (spec §6); it
// never locks, matching spec §5's "status snapshot reads engine state
// without locking and may therefore report a state that never
// simultaneously existed; this is intentional."
type WSSnapshot struct {
	Index      int
	NumPixels  int
	Enabled    bool
	Effect     string
	Brightness uint8
	Params     effect.Params
	Color      [3]uint8
}

func (s *WS) Snapshot() WSSnapshot {
	return WSSnapshot{
		Index:      s.Index,
		NumPixels:  s.NumPixels,
		Enabled:    s.Enabled,
		Effect:     s.effectName,
		Brightness: s.brightness,
		Params:     s.params,
		Color:      [3]uint8{s.lastColor.R, s.lastColor.G, s.lastColor.B},
	}
}

// LastFrame returns a copy of the most recently rendered pixel buffer,
// used by the refresher task to commit without re-evaluating the effect.
func (s *WS) LastFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.lastFrame))
	copy(out, s.lastFrame)
	return out
}

// EffectName reads the latched effect name under lock (used by the
// dispatcher's ack path, which runs on the same goroutine as Apply and
// never contends, but still goes through the lock for clarity).
func (s *WS) EffectName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectName
}
