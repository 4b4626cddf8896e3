// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package command

import (
	"encoding/json"
	"fmt"

	"github.com/evm100/ultranode/internal/effect"
)

// setPayload is the wire shape of cmd/{ws,rgb,white,relay}/set (spec §6):
// `{strip?|channel?, effect, brightness?, params?}`. strip and channel are
// decoded into separate fields; index() uses strip when present, else
// channel, and a topic-path index overwrites both.
type setPayload struct {
	Strip      *int           `json:"strip"`
	Channel    *int           `json:"channel"`
	Effect     string         `json:"effect"`
	Brightness *float64       `json:"brightness"`
	Params     effect.Params  `json:"params"`
}

func decodeSetPayload(raw json.RawMessage, pathIndex int, hasPathIndex bool) (setPayload, error) {
	var p setPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return setPayload{}, fmt.Errorf("command: decode payload: %w", err)
	}
	// "inject it into the JSON (overriding any payload field of the same
	// name) — path wins over body" (spec §4.5 step 3).
	if hasPathIndex {
		idx := pathIndex
		p.Strip = &idx
		p.Channel = &idx
	}
	return p, nil
}

func (p setPayload) index(def int) int {
	if p.Strip != nil {
		return *p.Strip
	}
	if p.Channel != nil {
		return *p.Channel
	}
	return def
}

func (p setPayload) brightness(def uint8) uint8 {
	if p.Brightness == nil {
		return def
	}
	f := *p.Brightness
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}

// motionOffPayload is cmd/motion/off's body: `{fade?:{duration_ms?,steps?}}`.
type motionOffPayload struct {
	Fade *struct {
		DurationMS *int `json:"duration_ms"`
		Steps      *int `json:"steps"`
	} `json:"fade"`
}

func decodeMotionOff(raw json.RawMessage) (motionOffPayload, error) {
	var p motionOffPayload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return motionOffPayload{}, fmt.Errorf("command: decode motion/off payload: %w", err)
	}
	return p, nil
}

func (p motionOffPayload) durationAndSteps() (durationMS, steps int) {
	if p.Fade == nil {
		return 0, 0
	}
	if p.Fade.DurationMS != nil {
		durationMS = *p.Fade.DurationMS
	}
	if p.Fade.Steps != nil {
		steps = *p.Fade.Steps
	}
	return durationMS, steps
}

// ackPayload is the acknowledgement object published on
// ul/<node>/evt/status (spec §4.5 step 6).
type ackPayload struct {
	Event      string        `json:"event"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	SlotKey    string        `json:"-"`
	Index      int           `json:"-"`
	Effect     string        `json:"effect,omitempty"`
	Params     effect.Params `json:"params,omitempty"`
	Brightness *uint8        `json:"brightness,omitempty"`
}

// MarshalJSON hand-builds the object so the slot-key ("strip"/"channel")
// field name and index appear under the right key for each class, and
// brightness is omitted entirely for ws acks (spec §4.5 step 6 note:
// "brightness omitted for ws").
func (a ackPayload) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"event":  a.Event,
		"status": a.Status,
	}
	if a.Error != "" {
		m["error"] = a.Error
		return json.Marshal(m)
	}
	if a.SlotKey != "" {
		m[a.SlotKey] = a.Index
	}
	if a.Effect != "" {
		m["effect"] = a.Effect
	}
	if a.Params != nil {
		m["params"] = a.Params
	}
	if a.Brightness != nil {
		m["brightness"] = *a.Brightness
	}
	return json.Marshal(m)
}

func errorAck(msg string) ackPayload {
	return ackPayload{Event: "ack", Status: "error", Error: msg}
}
