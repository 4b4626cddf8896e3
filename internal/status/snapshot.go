// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package status builds the full telemetry snapshot (spec §6): a single
// JSON object enumerating every enabled slot's current effect, brightness,
// params, and last-rendered color, queried on demand from the live engine
// state without locking (spec §5: "status snapshot reads engine state
// without locking and may therefore report a state that never
// simultaneously existed; this is intentional").
package status

import (
	"encoding/json"
	"time"

	"github.com/evm100/ultranode/internal/effect"
	"github.com/evm100/ultranode/internal/slot"
)

// wsEntry, rgbEntry, whiteEntry, relayEntry are the per-slot objects
// inside the snapshot's ws[]/rgb[]/white[]/relay[] arrays. Params is
// always emitted (SPEC_FULL.md §C.3): it is the params array of the last
// accepted command, verbatim, or [] for a slot never commanded.
type wsEntry struct {
	Index      int           `json:"index"`
	NumPixels  int           `json:"num_pixels"`
	Effect     string        `json:"effect"`
	Brightness uint8         `json:"brightness"`
	Params     effect.Params `json:"params"`
	Color      [3]uint8      `json:"color"`
	FrameRate  float64       `json:"frame_rate_hz"`
}

type rgbEntry struct {
	Index      int           `json:"index"`
	Effect     string        `json:"effect"`
	Brightness uint8         `json:"brightness"`
	Params     effect.Params `json:"params"`
	Color      [3]uint8      `json:"color"`
	FrameRate  float64       `json:"frame_rate_hz"`
}

type whiteEntry struct {
	Index      int           `json:"index"`
	Channel    int           `json:"channel"`
	Effect     string        `json:"effect"`
	Brightness uint8         `json:"brightness"`
	Params     effect.Params `json:"params"`
	FrameRate  float64       `json:"frame_rate_hz"`
}

type relayEntry struct {
	Index  int           `json:"index"`
	Effect string        `json:"effect"`
	Params effect.Params `json:"params"`
}

// snapshot is the full wire object (spec §6, key order fixed per
// SPEC_FULL.md §C.3: event, node, pir_enabled, uptime_s, ws, rgb, white,
// relay). Go's encoding/json always emits struct fields in declaration
// order, so the field order below IS the wire order.
type snapshot struct {
	Event      string       `json:"event"`
	Node       string       `json:"node"`
	PIREnabled bool         `json:"pir_enabled"`
	UptimeS    int64        `json:"uptime_s"`
	WS         []wsEntry    `json:"ws"`
	RGB        []rgbEntry   `json:"rgb"`
	White      []whiteEntry `json:"white"`
	Relay      []relayEntry `json:"relay"`
}

// Builder assembles a snapshot on demand from the live slot handles.
type Builder struct {
	NodeID     string
	WS         []*slot.WS
	RGB        []*slot.RGB
	White      []*slot.White
	Relay      []*slot.Relay
	WSHz       float64
	RGBHz      float64
	WhiteHz    float64
	PIREnabled bool
	StartedAt  time.Time
}

// Snapshot implements command.Snapshotter.
func (b *Builder) Snapshot() ([]byte, error) {
	s := snapshot{
		Event:      "snapshot",
		Node:       b.NodeID,
		PIREnabled: b.PIREnabled,
		UptimeS:    int64(time.Since(b.StartedAt) / time.Second),
	}
	for _, ws := range b.WS {
		if ws == nil || !ws.Enabled {
			continue
		}
		snap := ws.Snapshot()
		s.WS = append(s.WS, wsEntry{
			Index:      snap.Index,
			NumPixels:  snap.NumPixels,
			Effect:     snap.Effect,
			Brightness: snap.Brightness,
			Params:     nonNilParams(snap.Params),
			Color:      snap.Color,
			FrameRate:  b.WSHz,
		})
	}
	for _, rgb := range b.RGB {
		if rgb == nil || !rgb.Enabled {
			continue
		}
		snap := rgb.Snapshot()
		s.RGB = append(s.RGB, rgbEntry{
			Index:      snap.Index,
			Effect:     snap.Effect,
			Brightness: snap.Brightness,
			Params:     nonNilParams(snap.Params),
			Color:      snap.Color,
			FrameRate:  b.RGBHz,
		})
	}
	for _, w := range b.White {
		if w == nil || !w.Enabled {
			continue
		}
		snap := w.Snapshot()
		s.White = append(s.White, whiteEntry{
			Index:      snap.Index,
			Channel:    snap.Channel,
			Effect:     snap.Effect,
			Brightness: snap.Brightness,
			Params:     nonNilParams(snap.Params),
			FrameRate:  b.WhiteHz,
		})
	}
	for _, r := range b.Relay {
		if r == nil || !r.Enabled {
			continue
		}
		snap := r.Snapshot()
		s.Relay = append(s.Relay, relayEntry{
			Index:  snap.Index,
			Effect: snap.Effect,
			Params: nonNilParams(snap.Params),
		})
	}
	return json.Marshal(s)
}

// nonNilParams turns a never-commanded nil Params into an empty array so
// the wire value is always "params":[] rather than "params":null,
// matching SPEC_FULL.md §C.3's "params is ALWAYS emitted" decision.
func nonNilParams(p effect.Params) effect.Params {
	if p == nil {
		return effect.Params{}
	}
	return p
}
